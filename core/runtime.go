package core

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Runtime is the process-scoped context shared by every Thread: the registry
// of live threads, the pending-deletion accounting for detached teardown,
// the GUI access gate and the thread-local association table.
//
// It replaces what would otherwise be a pile of file-scope globals with one
// object that has an explicit lifecycle, so teardown order is deterministic
// and the whole layer can be exercised in isolation (tests create their own
// Runtime). The package-level helpers in the root package manage a singleton
// Runtime for applications that want the classic global surface.
type Runtime struct {
	logger  Logger
	metrics Metrics

	// Registry of live threads. The registry never owns the threads'
	// application state; entries are added by NewThread and removed when
	// a thread is reaped (joined, deleted or self-destroyed).
	allMu   *Mutex
	allGone *Cond // signaled on every unregister
	threads map[*Thread]struct{}

	// Detached threads in asynchronous teardown. The process must not
	// finish shutdown while any remain.
	deleteMu   *Mutex
	allDeleted *Cond // signaled when pendingDeletions drops to zero
	pending    int

	// gui is the exclusive right to call into the UI layer. It is locked
	// on behalf of the initialising (UI-owning) thread and must be
	// released around any blocking join performed by that thread.
	gui *Mutex

	// mainID identifies the UI-owning thread: the goroutine that created
	// the Runtime.
	mainID int64

	// self maps a running thread's goroutine id to its Thread, standing
	// in for a pthread_getspecific-style thread-local key.
	selfMu sync.Mutex
	self   map[int64]*Thread

	shuttingDown atomic.Bool
}

// NewRuntime creates a Runtime. The calling goroutine becomes the UI-owning
// thread and starts out holding the GUI gate. Pass nil for defaults.
func NewRuntime(cfg *RuntimeConfig) *Runtime {
	if cfg == nil {
		cfg = DefaultRuntimeConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &NilMetrics{}
	}

	allMu := NewMutex()
	deleteMu := NewMutex()
	gui := NewMutex()

	rt := &Runtime{
		logger:     logger,
		metrics:    metrics,
		allMu:      allMu,
		allGone:    NewCond(allMu),
		threads:    make(map[*Thread]struct{}),
		deleteMu:   deleteMu,
		allDeleted: NewCond(deleteMu),
		gui:        gui,
		mainID:     goid.Get(),
		self:       make(map[int64]*Thread),
	}

	// The UI-owning thread holds the gate from the start; worker threads
	// acquire it through GuiEnter when they need UI access.
	rt.gui.Lock()

	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() Logger {
	return rt.logger
}

// Metrics returns the runtime's metrics sink.
func (rt *Runtime) Metrics() Metrics {
	return rt.metrics
}

// MainID returns the goroutine id of the UI-owning thread.
func (rt *Runtime) MainID() int64 {
	return rt.mainID
}

// IsMain reports whether the calling goroutine is the UI-owning thread.
func (rt *Runtime) IsMain() bool {
	return goid.Get() == rt.mainID
}

// Current returns the Thread the calling goroutine belongs to, or nil when
// it is not a managed thread (the UI-owning thread included).
func (rt *Runtime) Current() *Thread {
	rt.selfMu.Lock()
	t := rt.self[goid.Get()]
	rt.selfMu.Unlock()
	return t
}

// GuiEnter acquires exclusive UI access. At most one logical holder exists
// at any time.
func (rt *Runtime) GuiEnter() error {
	return rt.gui.Lock()
}

// GuiLeave releases exclusive UI access. Any thread about to block on a
// join must call this first and reacquire afterwards; Thread.Wait does so
// automatically for the UI-owning thread.
func (rt *Runtime) GuiLeave() error {
	return rt.gui.Unlock()
}

// LiveThreads returns the number of registered threads.
func (rt *Runtime) LiveThreads() int {
	rt.allMu.Lock()
	n := len(rt.threads)
	rt.allMu.Unlock()
	return n
}

// PendingDeletions returns the number of detached threads whose teardown
// has started but not finished.
func (rt *Runtime) PendingDeletions() int {
	rt.deleteMu.Lock()
	n := rt.pending
	rt.deleteMu.Unlock()
	return n
}

// Stats returns a point-in-time snapshot for export.
func (rt *Runtime) Stats() RuntimeStats {
	held := true
	if rt.gui.TryLock() == nil {
		held = false
		rt.gui.Unlock()
	}
	return RuntimeStats{
		LiveThreads:      rt.LiveThreads(),
		PendingDeletions: rt.PendingDeletions(),
		GuiGateHeld:      held,
		ShutdownStarted:  rt.shuttingDown.Load(),
	}
}

// Shutdown is the orderly process-exit barrier. It first waits for every
// detached thread already in teardown, then deletes the remaining registered
// threads one at a time, waiting for each to leave the registry, and finally
// releases the GUI gate.
//
// It must be called from the UI-owning thread, after which the Runtime is
// dead and no further threads may be created from it.
func (rt *Runtime) Shutdown() {
	if !rt.shuttingDown.CompareAndSwap(false, true) {
		return
	}

	rt.logger.Info("threading runtime shutting down",
		F("live", rt.LiveThreads()), F("pending", rt.PendingDeletions()))

	rt.awaitPendingDeletions()

	for {
		rt.allMu.Lock()
		var t *Thread
		for th := range rt.threads {
			t = th
			break
		}
		rt.allMu.Unlock()

		if t == nil {
			break
		}

		// Joinable threads are reaped synchronously by Delete; detached
		// ones only get their cancel flag raised here and remove
		// themselves, so wait for the registry entry to disappear.
		t.Delete() //nolint:errcheck // ErrNeverStarted is expected here
		rt.awaitUnregistered(t)
	}

	// Detached teardown decrements the pending counter after the thread
	// has already left the registry, so re-check before declaring done.
	rt.awaitPendingDeletions()

	rt.gui.Unlock()

	rt.selfMu.Lock()
	rt.self = make(map[int64]*Thread)
	rt.selfMu.Unlock()

	rt.logger.Info("threading runtime shut down")
}

// registerThread adds t to the registry. Called from NewThread.
func (rt *Runtime) registerThread(t *Thread) {
	rt.allMu.Lock()
	rt.threads[t] = struct{}{}
	rt.allMu.Unlock()
}

// unregisterThread removes t from the registry and wakes anyone waiting for
// the set to drain.
func (rt *Runtime) unregisterThread(t *Thread) {
	rt.allMu.Lock()
	delete(rt.threads, t)
	rt.allGone.Broadcast()
	rt.allMu.Unlock()
}

// awaitUnregistered blocks until t is no longer registered.
func (rt *Runtime) awaitUnregistered(t *Thread) {
	rt.allMu.Lock()
	for {
		if _, ok := rt.threads[t]; !ok {
			break
		}
		rt.allGone.Wait() //nolint:errcheck
	}
	rt.allMu.Unlock()
}

// scheduleDeletion accounts for a detached thread entering teardown. It runs
// before any user-visible exit callback so a concurrent Shutdown cannot miss
// the thread.
func (rt *Runtime) scheduleDeletion() {
	rt.deleteMu.Lock()
	rt.pending++
	n := rt.pending
	rt.deleteMu.Unlock()
	rt.metrics.RecordPendingDeletions(n)
}

// finishDeletion completes a detached teardown, signaling the all-deleted
// condition when the last one finishes.
func (rt *Runtime) finishDeletion() {
	rt.deleteMu.Lock()
	rt.pending--
	n := rt.pending
	if n == 0 {
		rt.allDeleted.Signal()
	}
	rt.deleteMu.Unlock()
	rt.metrics.RecordPendingDeletions(n)
}

func (rt *Runtime) awaitPendingDeletions() {
	rt.deleteMu.Lock()
	for rt.pending > 0 {
		rt.allDeleted.Wait() //nolint:errcheck
	}
	rt.deleteMu.Unlock()
}

func (rt *Runtime) setCurrent(id int64, t *Thread) {
	rt.selfMu.Lock()
	rt.self[id] = t
	rt.selfMu.Unlock()
}

func (rt *Runtime) clearCurrent(id int64) {
	rt.selfMu.Lock()
	delete(rt.self, id)
	rt.selfMu.Unlock()
}
