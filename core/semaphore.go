package core

import "time"

// Semaphore is a counting semaphore with an optional bound on the count.
//
// It is deliberately built from one Mutex and one Cond instead of any native
// semaphore: native ones are not available everywhere and cannot express
// WaitTimeout portably. Because the count is only examined and changed under
// the owned mutex, a Post racing a timing-out Wait is serialized and no
// wakeup is ever lost.
//
// A Semaphore created as (0, 1) is a binary signal, which is how Thread uses
// it for its start and pause gates.
type Semaphore struct {
	mutex *Mutex
	cond  *Cond

	count    uint
	maxCount uint // 0 means unbounded
}

// NewSemaphore creates a semaphore with the given initial count and maximum
// count. A maxCount of 0 means the count is unbounded. It fails with ErrMisc
// when initialCount exceeds a nonzero maxCount or either is negative.
func NewSemaphore(initialCount, maxCount int) (*Semaphore, error) {
	if initialCount < 0 || maxCount < 0 {
		return nil, ErrMisc
	}
	if maxCount > 0 && initialCount > maxCount {
		return nil, ErrMisc
	}

	mutex := NewMutex()
	return &Semaphore{
		mutex:    mutex,
		cond:     NewCond(mutex),
		count:    uint(initialCount),
		maxCount: uint(maxCount),
	}, nil
}

// Wait decrements the count, blocking while it is zero.
func (s *Semaphore) Wait() error {
	if err := s.mutex.Lock(); err != nil {
		return ErrMisc
	}
	defer s.mutex.Unlock()

	for s.count == 0 {
		if err := s.cond.Wait(); err != nil {
			return ErrMisc
		}
	}

	s.count--
	return nil
}

// TryWait decrements the count without blocking, returning ErrBusy when the
// count is zero.
func (s *Semaphore) TryWait() error {
	if err := s.mutex.Lock(); err != nil {
		return ErrMisc
	}
	defer s.mutex.Unlock()

	if s.count == 0 {
		return ErrBusy
	}

	s.count--
	return nil
}

// WaitTimeout decrements the count, blocking at most ms milliseconds and
// returning ErrTimeout when the wait expires.
//
// The elapsed time is measured against a single clock sample taken at entry,
// so a spurious wakeup costs only the time it actually consumed, never a
// fresh full timeout.
func (s *Semaphore) WaitTimeout(ms uint32) error {
	if err := s.mutex.Lock(); err != nil {
		return ErrMisc
	}
	defer s.mutex.Unlock()

	startTime := time.Now()

	for s.count == 0 {
		elapsed := time.Since(startTime).Milliseconds()
		remaining := int64(ms) - elapsed
		if remaining <= 0 {
			return ErrTimeout
		}

		switch err := s.cond.WaitTimeout(uint32(remaining)); err {
		case nil:
			// Signaled; re-check the count.
		case ErrTimeout:
			return ErrTimeout
		default:
			return ErrMisc
		}
	}

	s.count--
	return nil
}

// Post increments the count and wakes one waiter. When the semaphore is
// bounded and already at capacity it returns ErrOverflow and leaves the
// count unchanged.
func (s *Semaphore) Post() error {
	if err := s.mutex.Lock(); err != nil {
		return ErrMisc
	}
	defer s.mutex.Unlock()

	if s.maxCount > 0 && s.count == s.maxCount {
		return ErrOverflow
	}

	s.count++

	if err := s.cond.Signal(); err != nil {
		return ErrMisc
	}
	return nil
}
