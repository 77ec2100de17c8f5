package pattern

import (
	"context"
	"fmt"

	"github.com/NetPo4ki/go-nursery/task"
)

// Parallel runs fn over every item with at most maxConcurrency
// in flight, writing each result into the slot matching its input
// position. Completion order never affects result order. The first
// failure cancels the remaining work and is returned; with several
// near-simultaneous failures, the group's aggregation rules apply.
func Parallel[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), maxConcurrency int) ([]R, error) {
	results := make([]R, len(items))
	g := task.New(ctx, task.FailFast, task.WithLimit(maxConcurrency))
	for i, item := range items {
		g.Go(fmt.Sprintf("parallel[%d]", i), func(ctx context.Context) error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r // each task writes a unique index
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Outcome is one slot of a ParallelSettled result: a value or the
// error that took its place.
type Outcome[R any] struct {
	Value R
	Err   error
}

// ParallelSettled is Parallel without fail-fast: every item runs to
// completion and failures are returned in place of results, never as
// an overall error.
func ParallelSettled[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), maxConcurrency int) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	g := task.New(ctx, task.Supervisor, task.WithLimit(maxConcurrency))
	for i, item := range items {
		g.Go(fmt.Sprintf("parallel[%d]", i), func(ctx context.Context) error {
			r, err := fn(ctx, item)
			outcomes[i] = Outcome[R]{Value: r, Err: err}
			// The failure lives in its slot; nothing to aggregate.
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
