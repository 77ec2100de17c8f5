package prim

import (
	"context"
	"sync"
)

// Cond is a condition variable bound to a Lock. Waiters park in FIFO
// order; Notify wakes them in that order, and each woken waiter
// reacquires the lock before Wait returns.
type Cond struct {
	// L is the lock a caller must hold around Wait and Notify.
	L *Lock

	mu sync.Mutex
	q  waitList
}

// NewCond creates a condition variable on l. A nil l gets a fresh Lock.
func NewCond(l *Lock) *Cond {
	if l == nil {
		l = NewLock()
	}
	return &Cond{L: l}
}

// Wait atomically releases the held lock, parks until notified, then
// reacquires the lock before returning. The lock is reacquired even
// when ctx is cancelled while parked, so the caller's locking invariant
// holds on every return path. If a notification and the cancellation
// race, the notification wins and Wait returns nil.
//
// Calling Wait without holding the lock is a usage error and panics.
func (c *Cond) Wait(ctx context.Context) error {
	if !c.L.Locked() {
		panic("prim: Cond.Wait called without holding the lock")
	}
	c.mu.Lock()
	w := c.q.push()
	c.mu.Unlock()

	c.L.Release()

	var err error
	select {
	case <-w.ch:
	case <-ctx.Done():
		c.mu.Lock()
		if c.q.remove(w) {
			err = ctx.Err()
		}
		// Removal failing means a notification landed first; consume
		// it and report a successful wait.
		c.mu.Unlock()
	}

	// Reacquisition is deliberately not cancellable: returning without
	// the lock would break every caller's defer Release.
	_ = c.L.Acquire(context.Background())
	return err
}

// Notify wakes up to n of the longest-waiting parked tasks. Each still
// has to reacquire the lock before its Wait returns. The caller must
// hold the lock.
func (c *Cond) Notify(n int) {
	if !c.L.Locked() {
		panic("prim: Cond.Notify called without holding the lock")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for ; n > 0; n-- {
		w := c.q.pop()
		if w == nil {
			return
		}
		close(w.ch)
	}
}

// NotifyAll wakes every parked task. The caller must hold the lock.
func (c *Cond) NotifyAll() {
	if !c.L.Locked() {
		panic("prim: Cond.NotifyAll called without holding the lock")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		w := c.q.pop()
		if w == nil {
			return
		}
		close(w.ch)
	}
}

// Waiters returns the number of tasks currently parked in Wait.
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.len()
}
