package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestCond_SignalWakesOneWaiter tests the basic wait/signal handshake
// Given: a waiter blocked on the condition with a predicate
// When: another thread flips the predicate and calls Signal under the mutex
// Then: the waiter wakes with the mutex reacquired and sees the new state
func TestCond_SignalWakesOneWaiter(t *testing.T) {
	m := NewMutex()
	c := NewCond(m)
	ready := false

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Lock() //nolint:errcheck
		for !ready {
			if err := c.Wait(); err != nil {
				t.Errorf("Wait failed: %v", err)
				break
			}
		}
		m.Unlock() //nolint:errcheck
	}()

	// Give the waiter a moment to park.
	time.Sleep(20 * time.Millisecond)

	m.Lock() //nolint:errcheck
	ready = true
	c.Signal() //nolint:errcheck
	m.Unlock() //nolint:errcheck

	wg.Wait()
}

// TestCond_BroadcastWakesAllWaiters tests Broadcast
// Given: 5 waiters blocked on the same condition
// When: Broadcast is called under the mutex
// Then: every waiter wakes and finishes
func TestCond_BroadcastWakesAllWaiters(t *testing.T) {
	m := NewMutex()
	c := NewCond(m)
	ready := false
	var woken atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock() //nolint:errcheck
			for !ready {
				c.Wait() //nolint:errcheck
			}
			woken.Add(1)
			m.Unlock() //nolint:errcheck
		}()
	}

	time.Sleep(20 * time.Millisecond)

	m.Lock() //nolint:errcheck
	ready = true
	c.Broadcast() //nolint:errcheck
	m.Unlock()    //nolint:errcheck

	wg.Wait()
	if got := woken.Load(); got != 5 {
		t.Errorf("woken waiters: got = %d, want 5", got)
	}
}

// TestCond_WaitTimeout tests the timed wait expiring
// Given: a condition nobody signals
// When: WaitTimeout(50) is called under the mutex
// Then: it returns ErrTimeout no earlier than 50ms with the mutex reacquired
func TestCond_WaitTimeout(t *testing.T) {
	m := NewMutex()
	c := NewCond(m)

	m.Lock() //nolint:errcheck

	start := time.Now()
	err := c.WaitTimeout(50)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitTimeout: got = %v, want ErrTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("WaitTimeout returned after %v, want >= 50ms", elapsed)
	}

	// The mutex must have been reacquired: unlocking it succeeds.
	if err := m.Unlock(); err != nil {
		t.Errorf("Unlock after timed-out wait: %v", err)
	}
}

// TestCond_WaitTimeoutSignaledInTime tests the timed wait being satisfied
// Given: a waiter in WaitTimeout(1000)
// When: the condition is signaled after ~20ms
// Then: the wait returns nil well before the timeout
func TestCond_WaitTimeoutSignaledInTime(t *testing.T) {
	m := NewMutex()
	c := NewCond(m)
	ready := false

	result := make(chan error, 1)
	go func() {
		m.Lock() //nolint:errcheck
		var err error
		for !ready && err == nil {
			err = c.WaitTimeout(1000)
		}
		m.Unlock() //nolint:errcheck
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)

	m.Lock() //nolint:errcheck
	ready = true
	c.Signal() //nolint:errcheck
	m.Unlock() //nolint:errcheck

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("signaled WaitTimeout: got = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not wake after Signal")
	}
}

// TestCond_SignalWithNoWaiters tests signaling into the void
// Given: a condition with no waiters
// When: Signal and Broadcast are called
// Then: both succeed and a later waiter is not affected by the stale signals
func TestCond_SignalWithNoWaiters(t *testing.T) {
	m := NewMutex()
	c := NewCond(m)

	if err := c.Signal(); err != nil {
		t.Errorf("Signal without waiters: %v", err)
	}
	if err := c.Broadcast(); err != nil {
		t.Errorf("Broadcast without waiters: %v", err)
	}

	// A condition variable remembers nothing: a subsequent timed wait
	// must still time out.
	m.Lock() //nolint:errcheck
	if err := c.WaitTimeout(30); !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitTimeout after stale signals: got = %v, want ErrTimeout", err)
	}
	m.Unlock() //nolint:errcheck
}
