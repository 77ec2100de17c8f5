package prim

import (
	"context"
	"fmt"
	"sync"
)

// CapacityLimiter is an admission-control primitive: a counting
// semaphore whose total token count can be changed at runtime and which
// exposes live accounting. At rest, BorrowedTokens + AvailableTokens
// equals TotalTokens.
type CapacityLimiter struct {
	mu       sync.Mutex
	total    int
	borrowed int
	q        waitList
}

// NewCapacityLimiter creates a limiter with the given token total.
// Panics if total < 1.
func NewCapacityLimiter(total int) *CapacityLimiter {
	if total < 1 {
		panic("prim: NewCapacityLimiter requires total >= 1")
	}
	return &CapacityLimiter{total: total}
}

// Acquire borrows a token, blocking FIFO while all tokens are out.
// Returns ctx's error if cancelled while waiting.
func (c *CapacityLimiter) Acquire(ctx context.Context) error {
	c.mu.Lock()
	if c.borrowed < c.total && c.q.len() == 0 {
		c.borrowed++
		c.mu.Unlock()
		return nil
	}
	w := c.q.push()
	c.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		if c.q.remove(w) {
			c.mu.Unlock()
			return ctx.Err()
		}
		c.mu.Unlock()
		// Granted concurrently with cancellation; return the token.
		c.Release()
		return ctx.Err()
	}
}

// TryAcquire borrows a token without blocking. It fails when the
// limiter is at capacity or acquirers are queued.
func (c *CapacityLimiter) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.borrowed >= c.total || c.q.len() > 0 {
		return false
	}
	c.borrowed++
	return true
}

// Release returns a borrowed token. Releasing without a matching
// Acquire is a usage error and panics.
func (c *CapacityLimiter) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.borrowed == 0 {
		panic("prim: CapacityLimiter.Release called without a borrowed token")
	}
	c.borrowed--
	c.grantLocked()
}

// SetTotalTokens changes the limiter's capacity. Raising it wakes
// waiters immediately; lowering it never revokes already-borrowed
// tokens, it only restricts future acquisitions until usage drains
// below the new ceiling. Panics if total < 1.
func (c *CapacityLimiter) SetTotalTokens(total int) {
	if total < 1 {
		panic("prim: SetTotalTokens requires total >= 1")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.grantLocked()
}

// grantLocked hands tokens to queued waiters while capacity allows.
func (c *CapacityLimiter) grantLocked() {
	for c.borrowed < c.total {
		w := c.q.pop()
		if w == nil {
			return
		}
		c.borrowed++
		close(w.ch)
	}
}

// TotalTokens returns the current capacity.
func (c *CapacityLimiter) TotalTokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// BorrowedTokens returns the number of tokens currently borrowed.
func (c *CapacityLimiter) BorrowedTokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.borrowed
}

// AvailableTokens returns TotalTokens minus BorrowedTokens. The result
// is negative while usage drains after the total was lowered below the
// borrowed count.
func (c *CapacityLimiter) AvailableTokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total - c.borrowed
}

// String reports the limiter's state for debugging.
func (c *CapacityLimiter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("CapacityLimiter(%d/%d, waiters=%d)", c.borrowed, c.total, c.q.len())
}
