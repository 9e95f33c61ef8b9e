package threading

import "github.com/Sanaki/go-threading/core"

// Re-export commonly used types from the core package for convenience.
// This allows users to import only the threading package for most use cases.

// Thread is a managed OS thread with an explicit lifecycle state machine
type Thread = core.Thread

// ThreadKind selects joinable or detached ownership
type ThreadKind = core.ThreadKind

// ThreadState is the lifecycle state of a Thread
type ThreadState = core.ThreadState

// EntryFunc is the body of a managed thread
type EntryFunc = core.EntryFunc

// Mutex is a lock with owner tracking, optional recursion and bounded wait
type Mutex = core.Mutex

// MutexKind selects the locking discipline of a Mutex
type MutexKind = core.MutexKind

// Cond is a condition variable bound to one Mutex
type Cond = core.Cond

// Semaphore is a counting semaphore with optional bounded capacity
type Semaphore = core.Semaphore

// Runtime is the process-scoped thread registry and GUI gate
type Runtime = core.Runtime

// RuntimeConfig configures the logger and metrics of a Runtime
type RuntimeConfig = core.RuntimeConfig

// Kind and state constants
const (
	ThreadJoinable = core.ThreadJoinable
	ThreadDetached = core.ThreadDetached

	StateNew     = core.StateNew
	StateRunning = core.StateRunning
	StatePaused  = core.StatePaused
	StateExited  = core.StateExited

	MutexDefault   = core.MutexDefault
	MutexRecursive = core.MutexRecursive

	// ExitCodeCancelled is the exit code of a cancelled thread
	ExitCodeCancelled = core.ExitCodeCancelled
)

// Sentinel errors, re-exported for errors.Is checks at the call site
var (
	ErrDeadLock       = core.ErrDeadLock
	ErrTimeout        = core.ErrTimeout
	ErrBusy           = core.ErrBusy
	ErrOverflow       = core.ErrOverflow
	ErrNotOwned       = core.ErrNotOwned
	ErrNotRunning     = core.ErrNotRunning
	ErrAlreadyRunning = core.ErrAlreadyRunning
	ErrNoResource     = core.ErrNoResource
	ErrNeverStarted   = core.ErrNeverStarted
	ErrMisc           = core.ErrMisc
)

// Constructors for the primitives, usable without a Runtime
var (
	NewMutex         = core.NewMutex
	NewMutexWithKind = core.NewMutexWithKind
	NewCond          = core.NewCond
	NewSemaphore     = core.NewSemaphore
)
