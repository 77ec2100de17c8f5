package pattern

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NetPo4ki/go-nursery/task"
)

// ErrWorkerPoolStopped is returned by Submit after Stop.
var ErrWorkerPoolStopped = errors.New("pattern: worker pool is stopped")

// WorkerPoolOption configures a WorkerPool.
type WorkerPoolOption func(*workerPoolConfig)

type workerPoolConfig struct {
	queueSize int
}

// WithQueueSize sets the item queue buffer size. Default is twice the
// worker count.
func WithQueueSize(n int) WorkerPoolOption {
	return func(c *workerPoolConfig) {
		if n < 0 {
			panic("pattern: WithQueueSize requires a non-negative size")
		}
		c.queueSize = n
	}
}

// WorkerPoolStats is a point-in-time snapshot of pool activity.
type WorkerPoolStats struct {
	Submitted  int64
	Completed  int64
	Errored    int64
	InFlight   int64
	QueueDepth int
	Workers    int
}

// WorkerPool runs n long-lived workers inside a task group, each
// consuming items from a shared queue. Stop closes intake and returns
// once queued and in-flight items have drained; closing the queue is
// what signals the workers to exit, replacing the per-worker poison
// pill with the same drain guarantee.
type WorkerPool[T any] struct {
	g       *task.Group
	queue   chan T
	fn      func(ctx context.Context, item T) error
	stopped atomic.Bool
	workers int

	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64

	errMu sync.Mutex
	errs  []error
}

// NewWorkerPool starts n workers that apply fn to every submitted
// item. Panics if n < 1 or fn is nil.
func NewWorkerPool[T any](parent context.Context, n int, fn func(ctx context.Context, item T) error, opts ...WorkerPoolOption) *WorkerPool[T] {
	if n < 1 {
		panic("pattern: NewWorkerPool requires n >= 1")
	}
	if fn == nil {
		panic("pattern: NewWorkerPool requires a worker fn")
	}
	cfg := workerPoolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &WorkerPool[T]{
		g:       task.New(parent, task.Supervisor),
		queue:   make(chan T, cfg.queueSize),
		fn:      fn,
		workers: n,
	}
	for i := range n {
		p.g.Go(fmt.Sprintf("worker[%d]", i), p.worker)
	}
	return p
}

func (p *WorkerPool[T]) worker(ctx context.Context) error {
	for item := range p.queue {
		p.process(ctx, item)
	}
	return nil
}

func (p *WorkerPool[T]) process(ctx context.Context, item T) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()
	if err := p.fn(ctx, item); err != nil {
		p.errored.Add(1)
		p.errMu.Lock()
		p.errs = append(p.errs, err)
		p.errMu.Unlock()
	}
}

// Submit queues an item, blocking while the queue is full. It returns
// ErrWorkerPoolStopped after Stop and ctx's error if cancelled while
// blocked.
func (p *WorkerPool[T]) Submit(ctx context.Context, item T) (err error) {
	if p.stopped.Load() {
		return ErrWorkerPoolStopped
	}
	// Stop can close the queue between the check above and the send;
	// the resulting panic is mapped back to ErrWorkerPoolStopped.
	defer func() {
		if r := recover(); r != nil {
			err = ErrWorkerPoolStopped
		}
	}()
	select {
	case p.queue <- item:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.g.Context().Done():
		return p.g.Context().Err()
	}
}

// TrySubmit queues an item without blocking. It reports false when the
// queue is full or the pool is stopped.
func (p *WorkerPool[T]) TrySubmit(item T) (submitted bool) {
	if p.stopped.Load() {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			submitted = false
		}
	}()
	select {
	case p.queue <- item:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// Stop closes intake and waits for the workers to drain the queue and
// finish in-flight items. It returns the joined errors of failed
// items. Idempotent; subsequent calls return the same result.
func (p *WorkerPool[T]) Stop() error {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.queue)
	}
	if err := p.g.Wait(); err != nil {
		return err
	}
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}

// Stats returns a snapshot of pool counters. Safe to call
// concurrently.
func (p *WorkerPool[T]) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.queue),
		Workers:    p.workers,
	}
}
