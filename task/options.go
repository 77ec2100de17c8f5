package task

import (
	"context"
	"time"
)

// Policy determines how a Group reacts to a child failure.
type Policy int

const (
	// FailFast cancels all siblings when the first failure is
	// recorded. Later failures that still occur are kept and
	// aggregated.
	FailFast Policy = iota

	// Supervisor lets siblings run to completion regardless of
	// failures; everything is aggregated at Wait.
	Supervisor
)

// Observer receives group and task lifecycle events. Implementations
// must be safe for concurrent use; hooks run on the task's goroutine
// and must not block.
type Observer interface {
	GroupCreated(ctx context.Context)
	GroupCancelled(ctx context.Context, cause error)
	GroupJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context, name string)
	TaskFinished(ctx context.Context, name string, dur time.Duration, err error, panicked bool)
}

// Option configures a Group.
type Option func(*Options)

// Options holds Group configuration.
type Options struct {
	PanicAsError bool
	Observer     Observer
	Limit        int
	Timeout      time.Duration
	Deadline     time.Time
}

func defaultOptions() Options { return Options{PanicAsError: true} }

// WithPanicAsError controls whether a panicking task is converted to a
// *PanicError failure (the default) or re-raised on its goroutine.
func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

// WithObserver attaches lifecycle hooks to the group.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithLimit bounds how many of the group's tasks run concurrently.
// Excess tasks queue FIFO on the group's capacity limiter. Zero, the
// default, means unlimited.
func WithLimit(n int) Option { return func(o *Options) { o.Limit = n } }

// WithTimeout gives the group's scope a deadline relative to its
// creation.
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }

// WithDeadline gives the group's scope an absolute deadline.
func WithDeadline(t time.Time) Option { return func(o *Options) { o.Deadline = t } }
