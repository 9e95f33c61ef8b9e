package core

import (
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// MutexKind selects the locking discipline of a Mutex. It is fixed at
// construction time.
type MutexKind int

const (
	// MutexDefault is a plain non-recursive mutex. A thread that relocks a
	// mutex it already owns gets ErrDeadLock instead of blocking forever.
	MutexDefault MutexKind = iota

	// MutexRecursive allows the owning thread to lock the mutex again;
	// it must unlock it the same number of times.
	MutexRecursive
)

// Mutex is a mutual-exclusion lock with explicit owner tracking.
//
// Unlike sync.Mutex it supports a bounded-wait acquire (LockTimeout) and
// detects self-deadlock for the default kind. The detection is done with our
// own owner bookkeeping rather than any native facility, so the behavior is
// identical on every platform.
//
// All methods report failures as one of the sentinel errors in this package;
// none of them panic.
type Mutex struct {
	kind MutexKind

	// sem holds the lock token. Writing the single buffered element is
	// acquiring the mutex; reading it back is releasing. A select against
	// it gives us TryLock and LockTimeout for free.
	sem chan struct{}

	// meta guards owner and depth. owner is the goroutine id of the
	// current holder (0 when unlocked); depth is the recursion depth and
	// only exceeds 1 for MutexRecursive.
	meta  sync.Mutex
	owner int64
	depth int
}

// NewMutex creates a default-kind mutex.
func NewMutex() *Mutex {
	return NewMutexWithKind(MutexDefault)
}

// NewMutexWithKind creates a mutex of the given kind.
func NewMutexWithKind(kind MutexKind) *Mutex {
	return &Mutex{
		kind: kind,
		sem:  make(chan struct{}, 1),
	}
}

// Kind returns the locking discipline of the mutex.
func (m *Mutex) Kind() MutexKind {
	return m.kind
}

// Lock acquires the mutex, blocking until it is available.
//
// For MutexDefault, calling Lock while already owning the mutex returns
// ErrDeadLock immediately instead of blocking. For MutexRecursive, the owner
// may relock; the recursion depth is tracked and unwound by Unlock.
func (m *Mutex) Lock() error {
	id := goid.Get()

	m.meta.Lock()
	if m.owner == id && m.owner != 0 {
		if m.kind == MutexRecursive {
			m.depth++
			m.meta.Unlock()
			return nil
		}
		m.meta.Unlock()
		return ErrDeadLock
	}
	m.meta.Unlock()

	m.sem <- struct{}{}
	m.setOwner(id)
	return nil
}

// LockTimeout acquires the mutex, giving up after the given number of
// milliseconds and returning ErrTimeout.
//
// Self-relock of a default-kind mutex is not detected here; the call simply
// times out, which mirrors the behavior of a native timed lock.
func (m *Mutex) LockTimeout(ms uint32) error {
	id := goid.Get()

	m.meta.Lock()
	if m.kind == MutexRecursive && m.owner == id && m.owner != 0 {
		m.depth++
		m.meta.Unlock()
		return nil
	}
	m.meta.Unlock()

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case m.sem <- struct{}{}:
		m.setOwner(id)
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}

// TryLock attempts to acquire the mutex without blocking. It returns ErrBusy
// when the mutex is held by anyone, including the caller of a default-kind
// mutex.
func (m *Mutex) TryLock() error {
	id := goid.Get()

	m.meta.Lock()
	if m.owner == id && m.owner != 0 {
		if m.kind == MutexRecursive {
			m.depth++
			m.meta.Unlock()
			return nil
		}
		m.meta.Unlock()
		return ErrBusy
	}
	m.meta.Unlock()

	select {
	case m.sem <- struct{}{}:
		m.setOwner(id)
		return nil
	default:
		return ErrBusy
	}
}

// Unlock releases the mutex. Unlocking a mutex that is not locked, or that
// is held by another thread, returns ErrNotOwned; only the holder can
// release the lock token.
//
// On the owner's paths the tracked owner is cleared before the result is
// computed, so a failed unlock can never leave the mutex attributed to a
// ghost owner. A rejected non-owner unlock leaves the holder's state intact.
func (m *Mutex) Unlock() error {
	id := goid.Get()

	m.meta.Lock()
	if m.owner != 0 && m.owner != id {
		m.meta.Unlock()
		return ErrNotOwned
	}
	if m.kind == MutexRecursive && m.owner == id && m.depth > 1 {
		m.depth--
		m.meta.Unlock()
		return nil
	}
	m.owner = 0
	m.depth = 0
	m.meta.Unlock()

	select {
	case <-m.sem:
		return nil
	default:
		return ErrNotOwned
	}
}

func (m *Mutex) setOwner(id int64) {
	m.meta.Lock()
	m.owner = id
	m.depth = 1
	m.meta.Unlock()
}
