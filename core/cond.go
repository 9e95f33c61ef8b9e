package core

import (
	"container/list"
	"sync"
	"time"
)

// Cond is a condition variable bound to exactly one Mutex at construction.
// It is never rebound.
//
// The contract is the standard one: callers must hold the bound mutex when
// calling Wait, WaitTimeout, Signal or Broadcast (behavior is undefined
// otherwise). Wait releases the mutex while blocked and reacquires it before
// returning.
//
// Unlike sync.Cond, WaitTimeout is supported. The deadline is absolute,
// computed once from the current time plus the timeout, so spurious or stolen
// wakeups cannot stretch the total wait.
type Cond struct {
	mutex *Mutex

	// waiters is the queue of parked callers, each represented by a
	// channel that is closed to wake its owner. Guarded by wl, which is
	// ordered strictly after the bound mutex and before nothing.
	wl      sync.Mutex
	waiters *list.List
}

// NewCond creates a condition variable bound to mutex.
func NewCond(mutex *Mutex) *Cond {
	return &Cond{
		mutex:   mutex,
		waiters: list.New(),
	}
}

// Mutex returns the bound mutex.
func (c *Cond) Mutex() *Mutex {
	return c.mutex
}

// Wait blocks until the condition is signaled. The bound mutex is released
// while blocked and reacquired before Wait returns, even on failure.
func (c *Cond) Wait() error {
	w := c.enqueue()

	if err := c.mutex.Unlock(); err != nil {
		c.abandon(w)
		return ErrMisc
	}

	<-w

	if err := c.mutex.Lock(); err != nil {
		return ErrMisc
	}
	return nil
}

// WaitTimeout blocks until the condition is signaled or ms milliseconds have
// elapsed, returning ErrTimeout in the latter case. The bound mutex is
// reacquired before returning on every path.
func (c *Cond) WaitTimeout(ms uint32) error {
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)

	w := c.enqueue()

	if err := c.mutex.Unlock(); err != nil {
		c.abandon(w)
		return ErrMisc
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	var result error
	select {
	case <-w:
	case <-timer.C:
		// The timer may have raced a concurrent Signal that already
		// consumed our entry. Only report a timeout if the entry was
		// still queued; otherwise the wakeup is ours to keep.
		if c.abandon(w) {
			result = ErrTimeout
		}
	}

	if err := c.mutex.Lock(); err != nil {
		return ErrMisc
	}
	return result
}

// Signal wakes at most one waiter. Which one is unspecified.
func (c *Cond) Signal() error {
	c.wl.Lock()
	if e := c.waiters.Front(); e != nil {
		c.waiters.Remove(e)
		close(e.Value.(chan struct{}))
	}
	c.wl.Unlock()
	return nil
}

// Broadcast wakes all waiters. No ordering among them is guaranteed.
func (c *Cond) Broadcast() error {
	c.wl.Lock()
	for e := c.waiters.Front(); e != nil; e = c.waiters.Front() {
		c.waiters.Remove(e)
		close(e.Value.(chan struct{}))
	}
	c.wl.Unlock()
	return nil
}

// enqueue registers a new waiter. It is called while the caller still holds
// the bound mutex, so a Post/Signal serialized behind that mutex is
// guaranteed to observe the entry: no wakeup can be lost between enqueue and
// the release of the mutex.
func (c *Cond) enqueue() chan struct{} {
	w := make(chan struct{})
	c.wl.Lock()
	c.waiters.PushBack(w)
	c.wl.Unlock()
	return w
}

// abandon removes w from the queue if it is still waiting. It reports
// whether the entry was removed; false means a Signal or Broadcast already
// claimed it.
func (c *Cond) abandon(w chan struct{}) bool {
	c.wl.Lock()
	defer c.wl.Unlock()
	for e := c.waiters.Front(); e != nil; e = e.Next() {
		if e.Value.(chan struct{}) == w {
			c.waiters.Remove(e)
			return true
		}
	}
	return false
}
