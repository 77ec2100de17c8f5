package pattern

import (
	"context"
	"errors"

	"github.com/NetPo4ki/go-nursery/prim"
)

// ErrPoolClosed is returned by Pool.Get after Close.
var ErrPoolClosed = errors.New("pattern: pool is closed")

// PoolOption configures a Pool.
type PoolOption[C any] func(*Pool[C])

// WithCloser sets the function used to dispose of idle connections on
// Close and of returned connections after Close.
func WithCloser[C any](fn func(C) error) PoolOption[C] {
	return func(p *Pool[C]) { p.closer = fn }
}

// Pool hands out connections produced by a factory, capping concurrent
// checkouts with a capacity limiter and recycling returned connections
// through a lock-protected free list.
type Pool[C any] struct {
	lim     *prim.CapacityLimiter
	lock    *prim.Lock
	idle    []C
	closed  bool
	factory func(ctx context.Context) (C, error)
	closer  func(C) error
}

// NewPool creates a pool allowing at most max concurrent checkouts.
// Panics if max < 1 or factory is nil.
func NewPool[C any](max int, factory func(ctx context.Context) (C, error), opts ...PoolOption[C]) *Pool[C] {
	if factory == nil {
		panic("pattern: NewPool requires a factory")
	}
	p := &Pool[C]{
		lim:     prim.NewCapacityLimiter(max),
		lock:    prim.NewLock(),
		factory: factory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get checks out a connection, blocking while max checkouts are
// outstanding. An idle connection is reused when available; otherwise
// the factory runs. The caller must return the connection with Put.
func (p *Pool[C]) Get(ctx context.Context) (C, error) {
	var zero C
	if err := p.lim.Acquire(ctx); err != nil {
		return zero, err
	}

	if err := p.lock.Acquire(ctx); err != nil {
		p.lim.Release()
		return zero, err
	}
	if p.closed {
		p.lock.Release()
		p.lim.Release()
		return zero, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.lock.Release()
		return c, nil
	}
	p.lock.Release()

	// The factory runs outside the free-list lock so slow dials do not
	// serialize unrelated checkouts; the limiter token already reserves
	// this checkout's slot.
	c, err := p.factory(ctx)
	if err != nil {
		p.lim.Release()
		return zero, err
	}
	return c, nil
}

// Put returns a checked-out connection to the free list and frees its
// checkout slot. After Close, the connection is disposed of instead.
func (p *Pool[C]) Put(c C) {
	_ = p.lock.Acquire(context.Background()) // cannot fail with Background
	if p.closed {
		p.lock.Release()
		if p.closer != nil {
			_ = p.closer(c)
		}
		p.lim.Release()
		return
	}
	p.idle = append(p.idle, c)
	p.lock.Release()
	p.lim.Release()
}

// Close marks the pool closed and disposes of every idle connection
// under the lock. Connections still checked out are disposed of as
// they come back through Put. Close is idempotent; it returns the
// joined disposal errors.
func (p *Pool[C]) Close(ctx context.Context) error {
	if err := p.lock.Acquire(ctx); err != nil {
		return err
	}
	if p.closed {
		p.lock.Release()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.lock.Release()

	var errs []error
	for _, c := range idle {
		if p.closer != nil {
			if err := p.closer(c); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Idle returns the current size of the free list.
func (p *Pool[C]) Idle() int {
	_ = p.lock.Acquire(context.Background())
	defer p.lock.Release()
	return len(p.idle)
}

// InUse returns the number of outstanding checkouts.
func (p *Pool[C]) InUse() int {
	return p.lim.BorrowedTokens()
}
