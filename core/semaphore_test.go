package core

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Construction
// =============================================================================

// TestSemaphore_InvalidCounts tests constructor validation
// Given: count combinations that violate 0 <= initial <= max
// When: NewSemaphore is called
// Then: construction fails
func TestSemaphore_InvalidCounts(t *testing.T) {
	cases := []struct {
		name    string
		initial int
		max     int
	}{
		{"negative initial", -1, 0},
		{"negative max", 0, -1},
		{"initial above max", 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSemaphore(tc.initial, tc.max); err == nil {
				t.Errorf("NewSemaphore(%d, %d) succeeded, want error", tc.initial, tc.max)
			}
		})
	}
}

// =============================================================================
// Binary signal behavior
// =============================================================================

// TestSemaphore_BinarySignal tests (0, 1) semantics
// Given: a semaphore constructed as (0, 1)
// When: TryWait and Post alternate
// Then: TryWait returns ErrBusy until exactly one Post has occurred since the last successful wait
func TestSemaphore_BinarySignal(t *testing.T) {
	s, err := NewSemaphore(0, 1)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("TryWait on empty semaphore: got = %v, want ErrBusy", err)
	}

	if err := s.Post(); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if err := s.TryWait(); err != nil {
		t.Errorf("TryWait after Post: got = %v, want nil", err)
	}
	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("second TryWait: got = %v, want ErrBusy", err)
	}
}

// TestSemaphore_Overflow tests the bounded capacity
// Given: a (1, 1) semaphore already at capacity
// When: Post is called
// Then: it returns ErrOverflow and the count is unchanged
func TestSemaphore_Overflow(t *testing.T) {
	s, err := NewSemaphore(1, 1)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	if err := s.Post(); !errors.Is(err, ErrOverflow) {
		t.Errorf("Post at capacity: got = %v, want ErrOverflow", err)
	}

	// Count must still be exactly 1.
	if err := s.TryWait(); err != nil {
		t.Errorf("TryWait: got = %v, want nil", err)
	}
	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("TryWait after drain: got = %v, want ErrBusy", err)
	}
}

// TestSemaphore_Unbounded tests maxCount == 0
// Given: an unbounded (0, 0) semaphore
// When: Post is called many times
// Then: no Post overflows and every token can be consumed
func TestSemaphore_Unbounded(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		if err := s.Post(); err != nil {
			t.Fatalf("Post #%d failed: %v", i, err)
		}
	}
	for i := 0; i < 100; i++ {
		if err := s.TryWait(); err != nil {
			t.Fatalf("TryWait #%d failed: %v", i, err)
		}
	}
	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("TryWait on drained semaphore: got = %v, want ErrBusy", err)
	}
}

// =============================================================================
// Timed wait
// =============================================================================

// TestSemaphore_WaitTimeoutExpires tests the timeout path
// Given: an empty semaphore nobody posts to
// When: WaitTimeout(100) is called
// Then: it returns ErrTimeout no earlier than 100ms
func TestSemaphore_WaitTimeoutExpires(t *testing.T) {
	s, err := NewSemaphore(0, 1)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	start := time.Now()
	werr := s.WaitTimeout(100)
	elapsed := time.Since(start)

	if !errors.Is(werr, ErrTimeout) {
		t.Errorf("WaitTimeout: got = %v, want ErrTimeout", werr)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("WaitTimeout returned after %v, want >= 100ms", elapsed)
	}
}

// TestSemaphore_WaitTimeoutSatisfied tests a Post arriving in time
// Given: a waiter in WaitTimeout(2000) on an empty semaphore
// When: Post fires after ~20ms
// Then: the wait returns nil, well before the deadline
func TestSemaphore_WaitTimeoutSatisfied(t *testing.T) {
	s, err := NewSemaphore(0, 1)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- s.WaitTimeout(2000)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.Post(); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	select {
	case werr := <-result:
		if werr != nil {
			t.Errorf("WaitTimeout: got = %v, want nil", werr)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("WaitTimeout never returned")
	}
}

// =============================================================================
// Races
// =============================================================================

// TestSemaphore_PostWaitRace tests the no-lost-wakeup guarantee
// Given: a (0, 1) semaphore, a producer and a consumer
// When: the producer performs 10000 successful Posts (retrying overflows) and the consumer performs 10000 blocking Waits
// Then: every Post is consumed exactly once and both sides finish
func TestSemaphore_PostWaitRace(t *testing.T) {
	const rounds = 10000

	s, err := NewSemaphore(0, 1)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	var posted, consumed atomic.Int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for posted.Load() < rounds {
			switch err := s.Post(); {
			case err == nil:
				posted.Add(1)
			case errors.Is(err, ErrOverflow):
				// Consumer lagging; let it catch up.
				runtime.Gosched()
			default:
				t.Errorf("Post failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for consumed.Load() < rounds {
			if err := s.Wait(); err != nil {
				t.Errorf("Wait failed: %v", err)
				return
			}
			consumed.Add(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(60 * time.Second):
		t.Fatalf("race did not finish: posted=%d consumed=%d",
			posted.Load(), consumed.Load())
	}

	if posted.Load() != consumed.Load() {
		t.Errorf("posted = %d, consumed = %d, want equal", posted.Load(), consumed.Load())
	}

	// No double-consumption: the semaphore must be empty again.
	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("TryWait after race: got = %v, want ErrBusy", err)
	}
}

// TestSemaphore_ManyWaitersOnePostEach tests fan-in signaling
// Given: 8 waiters blocked on an empty semaphore
// When: 8 Posts are issued
// Then: every waiter is released exactly once
func TestSemaphore_ManyWaitersOnePostEach(t *testing.T) {
	s, err := NewSemaphore(0, 0)
	if err != nil {
		t.Fatalf("NewSemaphore failed: %v", err)
	}

	var released atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Wait(); err != nil {
				t.Errorf("Wait failed: %v", err)
				return
			}
			released.Add(1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 8; i++ {
		if err := s.Post(); err != nil {
			t.Fatalf("Post #%d failed: %v", i, err)
		}
	}

	wg.Wait()
	if got := released.Load(); got != 8 {
		t.Errorf("released waiters: got = %d, want 8", got)
	}
}
