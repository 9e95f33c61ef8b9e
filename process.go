package threading

import (
	"sync"

	"github.com/Sanaki/go-threading/core"
)

// =============================================================================
// Process-wide Runtime Helper (Singleton)
// =============================================================================

var (
	globalRuntime *core.Runtime
	globalMu      sync.Mutex
)

// Init initializes the process-wide threading runtime. The calling goroutine
// becomes the UI-owning thread and starts out holding the GUI gate. Pass nil
// for the default logger and metrics.
//
// Calling Init twice is a no-op.
func Init(cfg *core.RuntimeConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRuntime != nil {
		return // Already initialized
	}

	globalRuntime = core.NewRuntime(cfg)
}

// GlobalRuntime returns the process-wide runtime instance. It panics if Init
// has not been called.
func GlobalRuntime() *core.Runtime {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRuntime == nil {
		panic("threading runtime not initialized. Call threading.Init() first.")
	}
	return globalRuntime
}

// Shutdown runs the orderly shutdown barrier on the process-wide runtime:
// waits for detached teardown, deletes every remaining thread, releases the
// GUI gate. The runtime is gone afterwards; Init may be called again.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRuntime != nil {
		globalRuntime.Shutdown()
		globalRuntime = nil
	}
}

// NewThread creates a managed thread on the process-wide runtime. The entry
// function does not run until Run is called on the returned thread.
func NewThread(kind ThreadKind, entry EntryFunc) *Thread {
	return core.NewThread(GlobalRuntime(), kind, entry)
}

// Current returns the managed thread the calling goroutine belongs to, or
// nil when called from an unmanaged goroutine (the UI-owning thread
// included).
func Current() *Thread {
	return GlobalRuntime().Current()
}

// IsMain reports whether the calling goroutine is the UI-owning thread.
func IsMain() bool {
	return GlobalRuntime().IsMain()
}

// GuiEnter acquires the process-wide exclusive right to call into the UI
// layer.
func GuiEnter() error {
	return GlobalRuntime().GuiEnter()
}

// GuiLeave releases the exclusive UI access acquired with GuiEnter.
func GuiLeave() error {
	return GlobalRuntime().GuiLeave()
}
