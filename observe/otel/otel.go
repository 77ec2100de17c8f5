package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observer implements task.Observer by recording events on the span
// found in each hook's context. It creates no spans of its own: the
// caller decides the span boundaries, the observer fills in what the
// group did inside them.
type Observer struct{}

// New returns a span-annotating observer.
func New() *Observer { return &Observer{} }

func (*Observer) GroupCreated(ctx context.Context) {
	trace.SpanFromContext(ctx).AddEvent("group.created")
}

func (*Observer) GroupCancelled(ctx context.Context, cause error) {
	span := trace.SpanFromContext(ctx)
	attrs := []attribute.KeyValue{}
	if cause != nil {
		attrs = append(attrs, attribute.String("cancel.cause", cause.Error()))
	}
	span.AddEvent("group.cancelled", trace.WithAttributes(attrs...))
}

func (*Observer) GroupJoined(ctx context.Context, wait time.Duration) {
	trace.SpanFromContext(ctx).AddEvent("group.joined",
		trace.WithAttributes(attribute.Int64("join.wait_us", wait.Microseconds())))
}

func (*Observer) TaskStarted(ctx context.Context, name string) {
	trace.SpanFromContext(ctx).AddEvent("task.started",
		trace.WithAttributes(attribute.String("task.name", name)))
}

func (*Observer) TaskFinished(ctx context.Context, name string, dur time.Duration, err error, panicked bool) {
	span := trace.SpanFromContext(ctx)
	attrs := []attribute.KeyValue{
		attribute.String("task.name", name),
		attribute.Int64("task.duration_us", dur.Microseconds()),
	}
	if panicked {
		attrs = append(attrs, attribute.Bool("task.panicked", true))
	}
	span.AddEvent("task.finished", trace.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("task.name", name)))
		span.SetStatus(codes.Error, err.Error())
	}
}

// Nop is an Observer that does nothing. Useful as a default when
// telemetry is optional.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) GroupCreated(context.Context)                                     {}
func (*Nop) GroupCancelled(context.Context, error)                            {}
func (*Nop) GroupJoined(context.Context, time.Duration)                       {}
func (*Nop) TaskStarted(context.Context, string)                              {}
func (*Nop) TaskFinished(context.Context, string, time.Duration, error, bool) {}
