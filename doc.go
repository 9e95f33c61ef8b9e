// Package threading provides a portable threading-primitives layer: a mutex
// with optional recursion and bounded wait, a condition variable with an
// absolute-deadline timed wait, a bounded counting semaphore, and a managed
// thread abstraction with an explicit lifecycle state machine.
//
// # Quick Start
//
// Initialize the process-wide runtime at application startup, from the
// thread that owns the UI (or whatever plays that role):
//
//	threading.Init(nil)
//	defer threading.Shutdown()
//
// Create and run a managed thread:
//
//	t := threading.NewThread(threading.ThreadJoinable, func(t *threading.Thread) int {
//		for !t.Checkpoint() {
//			// do a slice of work
//		}
//		return 0
//	})
//	t.Run()
//	code, _ := t.Wait()
//
// # Key Concepts
//
// Thread: a goroutine pinned to a dedicated OS thread, driven through the
// New → Running ⇄ Paused → Exited state machine. Joinable threads are owned
// by their creator and must be reaped with Wait or Delete; detached threads
// own themselves and self-destruct when they finish.
//
// Checkpoint: the cooperative suspension point. Pause, Delete and Kill only
// raise flags; the thread acts on them the next time its entry function
// calls Checkpoint. This is the only cancellation form that is safe while
// user code holds resources.
//
// Runtime: the process-scoped context owning the registry of live threads,
// the pending-deletion shutdown barrier and the GUI access gate. Tests can
// create private Runtimes via the core package; applications normally use
// the package-level singleton.
//
// GUI gate: a single mutex representing the exclusive right to call into
// the UI layer. Thread.Wait releases it around the blocking join when called
// from the UI-owning thread, which prevents the classic "UI thread waits for
// worker, worker waits for UI gate" deadlock.
//
// # Semaphores as gates
//
// The counting semaphore is built from the package's own mutex and condition
// variable rather than any native semaphore, so it has a portable
// WaitTimeout and never loses a Post racing a timing-out Wait. A Semaphore
// created as (0, 1) is a binary signal; the thread start and pause gates are
// exactly that.
//
// For observability adapters (Prometheus metrics, zerolog logging), see the
// observability subpackages.
package threading
