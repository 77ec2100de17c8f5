package prim

import (
	"context"
	"sync"
)

// Event is a one-shot latch: Set flips it permanently, Wait blocks
// until it flips. There is no way to unset it.
type Event struct {
	once sync.Once
	done chan struct{}
}

// NewEvent creates an unset Event.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Set marks the event, waking every current and future waiter. It is
// idempotent.
func (e *Event) Set() {
	e.once.Do(func() { close(e.done) })
}

// IsSet reports whether Set has been called.
func (e *Event) IsSet() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the event is set or ctx is cancelled. It returns
// immediately, without suspending, when the event is already set.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	default:
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done exposes the latch as a channel for use in select statements.
func (e *Event) Done() <-chan struct{} {
	return e.done
}
