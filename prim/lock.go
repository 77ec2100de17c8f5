package prim

import (
	"context"
	"sync"
)

// Lock is a single-owner, non-reentrant mutex with a FIFO wait queue
// and context-aware acquisition. A second Acquire without an
// intervening Release blocks, whoever makes it; callers that need
// reentrancy should restructure instead.
type Lock struct {
	mu   sync.Mutex
	held bool
	q    waitList
}

// NewLock creates an unheld Lock.
func NewLock() *Lock {
	return &Lock{}
}

// Acquire takes the lock, blocking FIFO behind current waiters. It
// returns ctx's error if cancelled while waiting; the lock is then not
// held by the caller.
func (l *Lock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if !l.held && l.q.len() == 0 {
		l.held = true
		l.mu.Unlock()
		return nil
	}
	w := l.q.push()
	l.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		if l.q.remove(w) {
			l.mu.Unlock()
			return ctx.Err()
		}
		l.mu.Unlock()
		// Ownership was handed to us concurrently with cancellation;
		// pass it on so the next waiter is not stranded.
		l.Release()
		return ctx.Err()
	}
}

// TryAcquire takes the lock without blocking. It fails when the lock is
// held or other acquirers are already queued, preserving FIFO order.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held || l.q.len() > 0 {
		return false
	}
	l.held = true
	return true
}

// Release hands the lock to the longest-waiting acquirer, or marks it
// free when nobody waits. Releasing an unheld lock is a usage error
// and panics.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		panic("prim: Lock.Release called on an unheld lock")
	}
	if w := l.q.pop(); w != nil {
		// held stays true; ownership transfers directly.
		close(w.ch)
		return
	}
	l.held = false
}

// Locked reports whether the lock is currently held.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
