package core

import (
	"runtime"
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// ThreadKind selects ownership of a Thread, fixed at construction.
type ThreadKind int

const (
	// ThreadJoinable threads are owned by their creator, who must reap
	// them with Wait or Delete to observe the exit code and release the
	// registry entry.
	ThreadJoinable ThreadKind = iota

	// ThreadDetached threads own themselves and self-destruct after their
	// entry function completes or they are cancelled. They cannot be
	// joined.
	ThreadDetached
)

// ThreadState is the lifecycle state of a Thread.
type ThreadState int

const (
	// StateNew: created but not started yet (next: Running).
	StateNew ThreadState = iota
	// StateRunning: executing user code (next: Paused or Exited).
	StateRunning
	// StatePaused: suspended cooperatively (next: Running or Exited).
	StatePaused
	// StateExited: the thread does not exist any more.
	StateExited
)

// String returns the lowercase state name, for logs and metric labels.
func (s ThreadState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// String returns the lowercase kind name, for logs and metric labels.
func (k ThreadKind) String() string {
	if k == ThreadDetached {
		return "detached"
	}
	return "joinable"
}

// EntryFunc is the body of a managed thread. It should call
// (*Thread).Checkpoint regularly so Pause and cancellation can take effect.
// Its return value becomes the thread's exit code.
type EntryFunc func(t *Thread) int

// ExitCodeCancelled is the exit code of a thread that was cancelled before
// or during its entry function.
const ExitCodeCancelled = -1

// PriorityDefault is the priority threads start out with, the middle of the
// abstract 0..100 range.
const PriorityDefault uint = 50

// cancelState is a tagged cancellation variant: a thread is either not
// cancelled, asked to stop cooperatively, or being forcibly torn down. The
// single field makes "cooperative and forced at once" unrepresentable.
type cancelState int

const (
	cancelNone cancelState = iota

	// cancelRequested: Delete was called; Checkpoint returns true and the
	// entry function is expected to return on its own.
	cancelRequested

	// cancelForced: Kill was called; the thread is terminated at its next
	// Checkpoint without returning to the entry function.
	cancelForced
)

// Thread couples a dedicated OS thread with an explicit lifecycle state
// machine: creation, run, cooperative pause/resume, cooperative and forced
// cancellation, and a join-once guarantee.
//
// The backing goroutine is pinned to its OS thread for its whole life
// (runtime.LockOSThread), which is what makes the 0..100 priority mapping
// onto the OS scheduler meaningful and gives user code genuine thread
// affinity for C interop or thread-local state.
//
// Two binary semaphores gate the lifecycle: the start-gate keeps the entry
// function from running any user code before Run is called, and the
// pause-gate is where a paused thread blocks when its user code reaches a
// Checkpoint.
type Thread struct {
	rt     *Runtime
	kind   ThreadKind
	entry  EntryFunc
	onExit func()

	// mu guards everything below it. It is never held across a call into
	// user code or across a blocking wait.
	mu           sync.Mutex
	name         string
	state        ThreadState
	created      bool
	cancel       cancelState
	reallyPaused bool
	prio         uint
	exitCode     int
	id           int64 // goroutine id of the backing thread
	tid          int   // kernel thread id, valid while running

	// joinMu serializes the join so that, with many concurrent waiters,
	// exactly one performs the real join; the others just wait for it and
	// read the captured exit code. shouldJoin is the checked-and-cleared
	// flag behind the guarantee.
	joinMu     sync.Mutex
	shouldJoin bool

	startGate *Semaphore
	pauseGate *Semaphore

	// done is closed when the backing thread has terminated; it is the
	// join target for joinable threads.
	done chan struct{}
}

// NewThread creates a Thread in the New state and registers it with rt. The
// entry function does not run until Run is called.
func NewThread(rt *Runtime, kind ThreadKind, entry EntryFunc) *Thread {
	startGate, _ := NewSemaphore(0, 1)
	pauseGate, _ := NewSemaphore(0, 1)

	t := &Thread{
		rt:         rt,
		kind:       kind,
		entry:      entry,
		state:      StateNew,
		prio:       PriorityDefault,
		shouldJoin: kind == ThreadJoinable,
		startGate:  startGate,
		pauseGate:  pauseGate,
		done:       make(chan struct{}),
	}

	rt.registerThread(t)
	return t
}

// SetName attaches a name used in logs and panics reports.
func (t *Thread) SetName(name string) {
	t.mu.Lock()
	t.name = name
	t.mu.Unlock()
}

// Name returns the thread's name.
func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Kind returns whether the thread is joinable or detached.
func (t *Thread) Kind() ThreadKind {
	return t.kind
}

// SetOnExit installs a callback run during the exit protocol, after user
// code has finished but before a detached thread destroys itself. It runs
// outside the thread's lock, so it may freely signal conditions.
func (t *Thread) SetOnExit(fn func()) {
	t.mu.Lock()
	t.onExit = fn
	t.mu.Unlock()
}

// =============================================================================
// Creation and start
// =============================================================================

// Create spawns the backing OS thread without running any user code: the
// entry wrapper parks on the start-gate until Run.
//
// stackSizeHint is advisory and ignored here: goroutine stacks grow on
// demand. Priority and detach mode take effect at creation; changing the
// detach mode later is not possible.
//
// It fails with ErrAlreadyRunning when the thread was already created, and
// with ErrNoResource (state forced to Exited) when the backing thread cannot
// be set up.
func (t *Thread) Create(stackSizeHint uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.createLocked()
}

func (t *Thread) createLocked() error {
	if t.created || t.state != StateNew {
		return ErrAlreadyRunning
	}
	if t.entry == nil {
		// No backing thread exists to run the exit protocol; retire the
		// object here so it cannot wedge a join or the shutdown barrier.
		t.state = StateExited
		t.exitCode = ExitCodeCancelled
		close(t.done)
		t.rt.unregisterThread(t)
		return ErrNoResource
	}

	go t.main()

	t.created = true
	return nil
}

// Run starts execution of the entry function, creating the backing thread
// first if Create was never called. It moves the thread to Running and
// releases the start-gate.
func (t *Thread) Run() error {
	t.mu.Lock()

	if !t.created {
		if err := t.createLocked(); err != nil {
			t.mu.Unlock()
			return err
		}
	} else if t.state != StateNew {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}

	t.state = StateRunning

	// Posting the start-gate wakes the parked entry wrapper. The wrapper
	// holds no locks there, so posting under t.mu is safe.
	err := t.startGate.Post()
	t.mu.Unlock()

	if err != nil {
		return ErrMisc
	}
	t.rt.metrics.RecordThreadState(t.kind, StateRunning)
	return nil
}

// main is the entry wrapper executed on the backing goroutine. It pins the
// goroutine to its OS thread, installs the thread-local association, parks
// on the start-gate, and deals with the Delete-raced-Run case before any
// user code can run.
func (t *Thread) main() {
	runtime.LockOSThread()

	id := goid.Get()
	t.rt.setCurrent(id, t)

	t.mu.Lock()
	t.id = id
	t.tid = currentThreadID()
	prio := t.prio
	t.mu.Unlock()

	if err := applyThreadPriority(t.tid, prio); err != nil {
		t.rt.logger.Warn("could not apply thread priority",
			F("thread", t.Name()), F("priority", prio))
	}

	waitStart := time.Now()
	t.startGate.Wait() //nolint:errcheck
	t.rt.metrics.RecordGateWait("start", time.Since(waitStart))

	// Was the thread cancelled while still New, i.e. did Delete or Kill
	// race Run? Then no user code runs at all.
	t.mu.Lock()
	dontRunAtAll := t.state == StateNew && t.cancel != cancelNone
	t.mu.Unlock()

	if dontRunAtAll {
		t.mu.Lock()
		t.exitCode = ExitCodeCancelled
		t.state = StateExited
		t.mu.Unlock()

		t.rt.clearCurrent(id)
		if t.kind == ThreadJoinable {
			close(t.done)
		}
		// A thread cancelled before it started may never see a join, so
		// it leaves the registry here; a join that does come still reads
		// the exit code through the closed done channel.
		t.rt.unregisterThread(t)
		t.rt.metrics.RecordThreadExit(t.kind, true)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.rt.logger.Error("thread panicked",
				F("thread", t.Name()), F("panic", r))
		}
		t.rt.clearCurrent(id)

		// Reached via panic or via the forced-cancel unwind out of
		// Checkpoint. A normal return has already run the exit
		// protocol and marked the state Exited.
		t.mu.Lock()
		exited := t.state == StateExited
		t.mu.Unlock()
		if !exited {
			t.finish(ExitCodeCancelled)
		}
	}()

	t.finish(t.entry(t))
}

// finish records the exit code, marks the thread Exited and runs the exit
// protocol: a detached thread is accounted as pending deletion before the
// exit callback runs (so a concurrent Shutdown cannot miss it), then removes
// itself from the registry; a joinable thread just becomes the join target.
func (t *Thread) finish(code int) {
	t.mu.Lock()
	t.exitCode = code
	t.state = StateExited
	onExit := t.onExit
	t.mu.Unlock()

	if t.kind == ThreadDetached {
		t.rt.scheduleDeletion()
	}

	if onExit != nil {
		onExit()
	}

	if t.kind == ThreadDetached {
		t.rt.unregisterThread(t)
		t.rt.finishDeletion()
	} else {
		close(t.done)
	}

	t.rt.metrics.RecordThreadState(t.kind, StateExited)
	t.rt.metrics.RecordThreadExit(t.kind, code == ExitCodeCancelled)
}

// =============================================================================
// Pause / resume / checkpoint
// =============================================================================

// Pause asks the thread to suspend. The transition is cooperative: only a
// flag changes here, and the thread actually blocks the next time its user
// code calls Checkpoint.
func (t *Thread) Pause() error {
	t.mu.Lock()

	if t.state != StateRunning {
		t.mu.Unlock()
		return ErrNotRunning
	}

	t.state = StatePaused
	t.mu.Unlock()

	t.rt.metrics.RecordThreadState(t.kind, StatePaused)
	return nil
}

// Resume lets a paused thread continue. Resuming an exited thread is a
// no-op success; any other non-paused state is ErrMisc.
//
// When the thread never reached a Checkpoint since Pause, it is not really
// blocked; only the state flips back so the next Checkpoint sees Running and
// does not block.
func (t *Thread) Resume() error {
	t.mu.Lock()

	switch t.state {
	case StatePaused:
		t.resumeLocked()
		t.mu.Unlock()
		t.rt.metrics.RecordThreadState(t.kind, StateRunning)
		return nil
	case StateExited:
		t.mu.Unlock()
		return nil
	default:
		t.mu.Unlock()
		return ErrMisc
	}
}

// resumeLocked posts the pause-gate if the thread actually blocked on it,
// and always moves the state back to Running. Caller holds t.mu and records
// the state transition after releasing it; metrics callbacks never run under
// the thread lock.
func (t *Thread) resumeLocked() {
	if t.reallyPaused {
		t.pauseGate.Post() //nolint:errcheck
		t.reallyPaused = false
	}
	t.state = StateRunning
}

// Checkpoint is the cooperative suspension and cancellation point. User code
// inside the entry function should call it regularly.
//
// When the thread has been paused, Checkpoint blocks on the pause-gate until
// Resume. It returns true when cancellation has been requested and the entry
// function should return. A forced cancellation (Kill) terminates the
// calling thread here and does not return.
//
// Calling Checkpoint from any goroutine other than the thread's own is a
// contract violation.
func (t *Thread) Checkpoint() bool {
	t.mu.Lock()
	if t.state == StatePaused {
		t.reallyPaused = true
		t.mu.Unlock()

		waitStart := time.Now()
		t.pauseGate.Wait() //nolint:errcheck
		t.rt.metrics.RecordGateWait("pause", time.Since(waitStart))

		t.mu.Lock()
	}
	cancel := t.cancel
	t.mu.Unlock()

	if cancel == cancelForced {
		// Unwind the thread; the deferred handler in main runs the
		// cancelled exit protocol.
		runtime.Goexit()
	}

	return cancel != cancelNone
}

// =============================================================================
// Join / delete / kill
// =============================================================================

// Wait joins the thread and returns its exit code. It is only supported for
// joinable threads; a detached thread has no stable identity to join
// against and Wait fails with ErrMisc.
//
// Any number of threads may call Wait concurrently: exactly one performs the
// real join, the rest serialize behind it and observe the identical exit
// code. When the caller is the UI-owning thread, the GUI gate is released
// for the duration of the block and reacquired afterwards, so a worker that
// needs UI access to finish cannot deadlock the join.
func (t *Thread) Wait() (int, error) {
	if t.kind == ThreadDetached {
		return 0, ErrMisc
	}
	return t.join(), nil
}

// join blocks until the backing thread has terminated and returns the
// captured exit code, unregistering the thread on the first real join.
func (t *Thread) join() int {
	isMain := t.rt.IsMain()
	if isMain {
		t.rt.GuiLeave() //nolint:errcheck
	}

	t.joinMu.Lock()
	if t.shouldJoin {
		<-t.done
		t.shouldJoin = false
		t.rt.unregisterThread(t)
	}
	t.joinMu.Unlock()

	if isMain {
		t.rt.GuiEnter() //nolint:errcheck
	}

	t.mu.Lock()
	code := t.exitCode
	t.mu.Unlock()
	return code
}

// Delete requests cooperative cancellation and, for joinable threads, reaps
// the thread.
//
// A thread still in New is unblocked (the entry wrapper wakes from the
// start-gate, observes the cancellation and exits without ever running user
// code); the call then returns ErrNeverStarted together with the sentinel
// exit code. The error means "the thread had not started", not that the
// deletion failed. A paused thread is resumed first so it can reach a
// Checkpoint. A detached thread is only flagged; it tears itself down.
func (t *Thread) Delete() (int, error) {
	isDetached := t.kind == ThreadDetached

	t.mu.Lock()
	state := t.state
	created := t.created
	if t.cancel == cancelNone {
		t.cancel = cancelRequested
	}
	t.mu.Unlock()

	switch state {
	case StateNew:
		if created {
			// Wake the entry wrapper parked on the start-gate so it
			// can observe the cancellation and bail out.
			t.startGate.Post() //nolint:errcheck
		} else {
			// No backing thread exists; retire the object directly.
			t.mu.Lock()
			t.exitCode = ExitCodeCancelled
			t.state = StateExited
			t.mu.Unlock()
			t.rt.unregisterThread(t)
		}
		return ExitCodeCancelled, ErrNeverStarted

	case StateExited:
		// Already terminated; reap a joinable thread if nobody has.
		if !isDetached {
			return t.join(), nil
		}
		return 0, nil

	default:
		if state == StatePaused {
			t.mu.Lock()
			// The thread may have been resumed and exited between the
			// two critical sections; only a still-paused thread is woken.
			resumed := t.state == StatePaused
			if resumed {
				t.resumeLocked()
			}
			t.mu.Unlock()
			if resumed {
				t.rt.metrics.RecordThreadState(t.kind, StateRunning)
			}
		}
		if !isDetached {
			return t.join(), nil
		}
		// Detached: cannot wait, the thread self-destructs at its
		// next Checkpoint or on return from its entry function.
		return 0, nil
	}
}

// Kill forcibly cancels the thread. It fails with ErrNotRunning for a
// thread that has not started or has already exited; a paused thread is
// resumed first so it can reach the termination point.
//
// The termination is asynchronous: the thread unwinds at its next
// Checkpoint, without returning to its entry function. A detached thread's
// teardown is accounted in the runtime's pending-deletion counter so the
// shutdown barrier waits for it; for a joinable thread only the exit code is
// marked cancelled and the caller remains responsible for joining.
func (t *Thread) Kill() error {
	t.mu.Lock()

	wasPaused := false
	switch t.state {
	case StateNew, StateExited:
		t.mu.Unlock()
		return ErrNotRunning
	case StatePaused:
		t.resumeLocked()
		wasPaused = true
	}

	t.cancel = cancelForced
	if t.kind == ThreadJoinable {
		t.exitCode = ExitCodeCancelled
	}
	t.mu.Unlock()

	if wasPaused {
		t.rt.metrics.RecordThreadState(t.kind, StateRunning)
	}

	t.rt.logger.Debug("thread kill requested",
		F("thread", t.Name()), F("kind", t.kind.String()))
	return nil
}

// Exit terminates the calling thread immediately with the given exit code,
// running the normal exit protocol. It must be called from the thread's own
// entry function and does not return.
func (t *Thread) Exit(code int) {
	t.finish(code)
	runtime.Goexit()
}

// =============================================================================
// Accessors
// =============================================================================

// SetPriority changes the thread's priority, 0 (lowest) to 100 (highest).
// Before the thread starts the value is stored and applied at start; while
// it runs the mapping is applied to the backing OS thread immediately.
// Setting the priority of an exited thread fails with ErrMisc.
func (t *Thread) SetPriority(prio uint) error {
	if prio > 100 {
		return ErrMisc
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateNew:
		t.prio = prio
		return nil
	case StateRunning, StatePaused:
		t.prio = prio
		return applyThreadPriority(t.tid, prio)
	default:
		return ErrMisc
	}
}

// GetPriority returns the thread's priority in the 0..100 range.
func (t *Thread) GetPriority() uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prio
}

// ID returns the identity of the backing thread, or 0 before it starts.
func (t *Thread) ID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// State returns the current lifecycle state.
func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsRunning reports whether the thread is in the Running state.
func (t *Thread) IsRunning() bool {
	return t.State() == StateRunning
}

// IsAlive reports whether the thread is Running or Paused.
func (t *Thread) IsAlive() bool {
	switch t.State() {
	case StateRunning, StatePaused:
		return true
	default:
		return false
	}
}

// IsPaused reports whether the thread is in the Paused state.
func (t *Thread) IsPaused() bool {
	return t.State() == StatePaused
}
