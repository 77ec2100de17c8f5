package scope

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by FailAfter when its own deadline expires.
var ErrTimeout = errors.New("scope: timeout")

// MoveOnAfter runs fn inside a scope whose deadline is d from now. When
// the deadline fires first, the scope's cancellation is swallowed and
// timedOut is true; fn's own errors pass through unchanged. An ancestor
// cancellation is not caught here and surfaces as fn's error.
func MoveOnAfter(parent context.Context, d time.Duration, fn func(ctx context.Context) error) (timedOut bool, err error) {
	s := New(WithTimeout(d))
	ctx := s.Enter(parent)
	err = s.Exit(fn(ctx))
	return s.CancelledCaught(), err
}

// FailAfter is MoveOnAfter with the timeout surfaced as ErrTimeout
// instead of a boolean.
func FailAfter(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	timedOut, err := MoveOnAfter(parent, d, fn)
	if timedOut {
		return ErrTimeout
	}
	return err
}

// Shield runs fn inside a shielded scope: cancellation of parent does
// not reach fn, so cleanup work completes (or fails on its own merits).
// A cancellation that arrived while fn was running is re-delivered as
// the return value once fn finishes; it is deferred, never discarded.
func Shield(parent context.Context, fn func(ctx context.Context) error) error {
	s := New(WithShield())
	ctx := s.Enter(parent)
	err := s.Exit(fn(ctx))
	if err == nil && parent.Err() != nil {
		if cause := context.Cause(parent); cause != nil {
			return cause
		}
		return parent.Err()
	}
	return err
}
