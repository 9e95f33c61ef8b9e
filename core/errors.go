package core

import "errors"

// Error values returned by the synchronization primitives and by Thread
// lifecycle operations. They represent expected, recoverable conditions in
// concurrent code, so they are returned rather than panicked, and every
// failure path maps to exactly one of them (use errors.Is to classify).
var (
	// ErrDeadLock is returned by Mutex.Lock when the calling thread already
	// owns a default-kind mutex. The self-relock is detected by our own
	// owner bookkeeping and never blocks.
	ErrDeadLock = errors.New("mutex: relock by owning thread would deadlock")

	// ErrTimeout is returned when a bounded wait expired before the
	// resource became available.
	ErrTimeout = errors.New("timeout expired")

	// ErrBusy is returned by non-blocking attempts (TryLock, TryWait) that
	// found the resource held or empty.
	ErrBusy = errors.New("resource busy")

	// ErrOverflow is returned by Semaphore.Post when the count is already
	// at the bounded capacity. The count is left unchanged.
	ErrOverflow = errors.New("semaphore: count already at maximum")

	// ErrNotOwned is returned by Mutex.Unlock when the mutex was not
	// locked. The tracked owner is still cleared.
	ErrNotOwned = errors.New("mutex: unlock of unlocked mutex")

	// ErrNotRunning is returned by thread operations that require a
	// running (or at least started) thread.
	ErrNotRunning = errors.New("thread: not running")

	// ErrAlreadyRunning is returned by Thread.Create when the thread has
	// already been created.
	ErrAlreadyRunning = errors.New("thread: already created")

	// ErrNoResource is returned when the OS-level thread or primitive
	// could not be created.
	ErrNoResource = errors.New("thread: no resources to create thread")

	// ErrNeverStarted is returned by Thread.Delete when the target was
	// still in the New state. The deletion itself succeeds (the entry
	// wrapper is unblocked and exits without running user code); the error
	// signals that the thread had not started, not that delete failed.
	ErrNeverStarted = errors.New("thread: deleted before it ever ran")

	// ErrMisc is the catch-all for platform or internal failures not
	// otherwise classified.
	ErrMisc = errors.New("miscellaneous threading error")
)
