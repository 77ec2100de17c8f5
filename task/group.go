package task

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NetPo4ki/go-nursery/prim"
	"github.com/NetPo4ki/go-nursery/scope"
)

// Group owns a set of concurrently running tasks and a single
// cancellation scope. Wait does not return until every spawned task has
// reached a terminal state.
type Group struct {
	sc     *scope.Scope
	ctx    context.Context
	policy Policy
	opts   Options
	obs    Observer
	lim    *prim.CapacityLimiter

	wg sync.WaitGroup

	// openMu serializes spawns against Wait closing the active window:
	// a spawn holding the read lock finishes its wg.Add before Wait can
	// flip open and start joining.
	openMu sync.RWMutex
	open   bool

	mu       sync.Mutex
	failures []taskFailure

	spawnSeq atomic.Int64
	active   atomic.Int64

	cancelOnce sync.Once
	joinOnce   sync.Once
	joined     error
}

type taskFailure struct {
	index int64
	err   error
}

// New creates a Group under parent. The group opens its own scope; the
// context returned by Context is cancelled when the group is cancelled,
// times out, or finishes joining.
func New(parent context.Context, policy Policy, optFns ...Option) *Group {
	if parent == nil {
		parent = context.Background()
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var scopeOpts []scope.Option
	if opts.Timeout > 0 {
		scopeOpts = append(scopeOpts, scope.WithTimeout(opts.Timeout))
	}
	if !opts.Deadline.IsZero() {
		scopeOpts = append(scopeOpts, scope.WithDeadline(opts.Deadline))
	}
	sc := scope.New(scopeOpts...)
	g := &Group{
		sc:     sc,
		ctx:    sc.Enter(parent),
		policy: policy,
		opts:   opts,
		obs:    opts.Observer,
	}
	if opts.Limit > 0 {
		g.lim = prim.NewCapacityLimiter(opts.Limit)
	}
	g.open = true
	if g.obs != nil {
		g.obs.GroupCreated(g.ctx)
	}
	return g
}

// Context returns the group's context.
func (g *Group) Context() context.Context { return g.ctx }

// Go schedules fn as a new task without waiting for it to begin.
// Calling Go after Wait has started joining is a usage error and
// panics.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	g.openMu.RLock()
	if !g.open {
		g.openMu.RUnlock()
		panic("task: Go called outside the group's active window")
	}
	g.wg.Add(1)
	index := g.spawnSeq.Add(1) - 1
	g.openMu.RUnlock()
	go g.run(index, name, fn, nil)
}

// run executes one task. consumed, when non-nil, gets the task's
// outcome first and reports whether it took ownership of the error
// (used by Start's readiness handshake).
func (g *Group) run(index int64, name string, fn func(ctx context.Context) error, consumed func(err error) bool) {
	defer g.wg.Done()

	if g.lim != nil {
		if err := g.lim.Acquire(g.ctx); err != nil {
			// Cancelled while queued for a slot. The cause of the
			// cancellation is already recorded elsewhere.
			if consumed != nil {
				consumed(err)
			}
			return
		}
		defer g.lim.Release()
	}
	if err := g.ctx.Err(); err != nil {
		// Cancelled before the task began; skip silently.
		if consumed != nil {
			consumed(err)
		}
		return
	}

	g.active.Add(1)
	defer g.active.Add(-1)

	if g.obs != nil {
		g.obs.TaskStarted(g.ctx, name)
	}
	start := time.Now()
	err, panicked := g.exec(fn)
	if g.obs != nil {
		g.obs.TaskFinished(g.ctx, name, time.Since(start), err, panicked)
	}

	if consumed != nil && consumed(err) {
		return
	}
	if err != nil {
		g.fail(index, err)
	}
}

// exec runs fn with panic recovery.
func (g *Group) exec(fn func(ctx context.Context) error) (err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if g.opts.PanicAsError {
				err = newPanicError(r)
			} else {
				panic(r)
			}
		}
	}()
	return fn(g.ctx), false
}

// fail records a task failure and, under FailFast, cancels the group.
// Child returns that merely reflect the group's own cancellation are
// unwind, not failures, and are dropped.
func (g *Group) fail(index int64, err error) {
	if g.isUnwind(err) {
		return
	}
	g.mu.Lock()
	g.failures = append(g.failures, taskFailure{index: index, err: err})
	g.mu.Unlock()
	if g.policy == FailFast {
		g.cancelWith(err)
	}
}

func (g *Group) isUnwind(err error) bool {
	if g.ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Cancel cancels the group's scope, signalling every task to stop at
// its next suspension point. Idempotent.
func (g *Group) Cancel() {
	g.cancelWith(nil)
}

func (g *Group) cancelWith(cause error) {
	g.cancelOnce.Do(func() {
		if g.obs != nil {
			g.obs.GroupCancelled(g.ctx, cause)
		}
	})
	g.sc.Cancel()
}

// Wait blocks until every spawned task has reached a terminal state,
// then resolves the group's outcome: nil when nothing failed, the
// single failure unchanged, or an *AggregateError carrying all
// failures in spawn order. A cancellation originating in the group's
// own scope (Cancel or its deadline) is caught here and not surfaced;
// an ancestor's cancellation propagates.
//
// Wait is idempotent; subsequent calls return the same result.
func (g *Group) Wait() error {
	g.joinOnce.Do(func() {
		g.openMu.Lock()
		g.open = false
		g.openMu.Unlock()
		start := time.Now()
		g.wg.Wait()
		if g.obs != nil {
			g.obs.GroupJoined(g.ctx, time.Since(start))
		}

		g.mu.Lock()
		sort.Slice(g.failures, func(i, j int) bool {
			return g.failures[i].index < g.failures[j].index
		})
		errs := make([]error, 0, len(g.failures))
		for _, f := range g.failures {
			errs = append(errs, f.err)
		}
		g.mu.Unlock()

		if outcome := aggregate(errs); outcome != nil {
			// Real failures always surface, even when the group's own
			// scope was the one cancelled; Exit must not get a chance
			// to misread a child's context.Canceled as unwind.
			_ = g.sc.Exit(nil)
			g.joined = outcome
			return
		}
		g.joined = g.sc.Exit(g.ctx.Err())
	})
	return g.joined
}

// CancelledCaught reports whether the group's own cancellation was
// observed and swallowed at Wait.
func (g *Group) CancelledCaught() bool { return g.sc.CancelledCaught() }

// Active returns the number of tasks currently executing.
func (g *Group) Active() int64 { return g.active.Load() }

// Spawned returns the total number of tasks spawned into the group.
func (g *Group) Spawned() int64 { return g.spawnSeq.Load() }
