// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of the local task group. It enables incremental migration
// without changing call sites that expect the errgroup shape.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/go-nursery/task"
)

// Group is an errgroup-like wrapper over task.Group (FailFast).
type Group struct {
	g   *task.Group
	ctx context.Context
}

// WithContext creates a Group bound to ctx. The returned context is
// cancelled when any function passed to Go returns a non-nil error.
func WithContext(ctx context.Context) (*Group, context.Context) {
	g := task.New(ctx, task.FailFast)
	return &Group{g: g, ctx: g.Context()}, g.Context()
}

// Go starts a function. It should return a non-nil error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.g.Go("errgroup", func(context.Context) error {
		return f()
	})
}

// Wait blocks until all functions have returned. It returns the first
// non-nil error or nil on success. Unlike x/sync/errgroup, simultaneous
// failures may surface as a *task.AggregateError.
func (g *Group) Wait() error {
	return g.g.Wait()
}
