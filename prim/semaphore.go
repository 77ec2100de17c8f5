package prim

import (
	"context"
	"fmt"
	"sync"
)

// Semaphore is a counting semaphore with a FIFO wait queue. Release
// hands a token directly to the longest waiter instead of bumping the
// counter, so queued acquirers cannot be barged past.
type Semaphore struct {
	mu    sync.Mutex
	value int
	q     waitList
}

// NewSemaphore creates a semaphore holding n tokens. Panics if n < 0.
func NewSemaphore(n int) *Semaphore {
	if n < 0 {
		panic("prim: NewSemaphore requires n >= 0")
	}
	return &Semaphore{value: n}
}

// Acquire takes a token, blocking FIFO while the count is zero.
// Returns ctx's error if cancelled while waiting.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.value > 0 && s.q.len() == 0 {
		s.value--
		s.mu.Unlock()
		return nil
	}
	w := s.q.push()
	s.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.q.remove(w) {
			s.mu.Unlock()
			return ctx.Err()
		}
		s.mu.Unlock()
		// A token was handed to us concurrently with cancellation;
		// give it back so it reaches the next waiter.
		s.Release()
		return ctx.Err()
	}
}

// TryAcquire takes a token without blocking. It fails when no token is
// free or when acquirers are queued, preserving FIFO order.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == 0 || s.q.len() > 0 {
		return false
	}
	s.value--
	return true
}

// Release returns a token, waking the longest-waiting acquirer if any.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.q.pop(); w != nil {
		// The token moves straight to the waiter; value is unchanged.
		close(w.ch)
		return
	}
	s.value++
}

// Value returns the number of currently available tokens. The value
// may be stale by the time the caller acts on it.
func (s *Semaphore) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// String reports the semaphore's state for debugging.
func (s *Semaphore) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Semaphore(value=%d, waiters=%d)", s.value, s.q.len())
}
