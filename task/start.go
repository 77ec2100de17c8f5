package task

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNeverStarted is returned by Start when the spawned task finished
// without signalling readiness.
var ErrNeverStarted = errors.New("task: task exited without signalling readiness")

// Start schedules fn as a new task and suspends the caller until the
// task signals readiness by calling ready exactly once. The value
// passed to ready is returned to the caller while the task keeps
// running concurrently inside the group.
//
// If the task fails before signalling, that failure is delivered here
// instead of through the group's outcome. If it returns without ever
// signalling, Start returns ErrNeverStarted. Failures after the
// readiness signal flow through the group as usual.
//
// Like Go, Start panics when called outside the group's active window.
func Start[T any](g *Group, name string, fn func(ctx context.Context, ready func(T)) error) (T, error) {
	var zero T
	if fn == nil {
		panic("task: Start requires a non-nil fn")
	}

	readyCh := make(chan T, 1)
	doneCh := make(chan error, 1)
	var signalled atomic.Bool

	ready := func(v T) {
		if !signalled.CompareAndSwap(false, true) {
			panic("task: ready signalled more than once")
		}
		readyCh <- v
	}

	// Before the readiness signal, the task's outcome belongs to the
	// Start caller; afterwards it belongs to the group.
	consumed := func(err error) bool {
		if signalled.Load() {
			return false
		}
		doneCh <- err
		return true
	}

	g.openMu.RLock()
	if !g.open {
		g.openMu.RUnlock()
		panic("task: Start called outside the group's active window")
	}
	g.wg.Add(1)
	index := g.spawnSeq.Add(1) - 1
	g.openMu.RUnlock()
	go g.run(index, name, func(ctx context.Context) error {
		return fn(ctx, ready)
	}, consumed)

	select {
	case v := <-readyCh:
		return v, nil
	case err := <-doneCh:
		if err == nil {
			err = ErrNeverStarted
		}
		return zero, err
	case <-g.ctx.Done():
		// A readiness signal that raced the cancellation still counts.
		select {
		case v := <-readyCh:
			return v, nil
		default:
		}
		return zero, g.ctx.Err()
	}
}
