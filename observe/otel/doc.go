// Package otel provides an OpenTelemetry observer for task groups.
// It annotates the span active in the group's context with lifecycle
// events (task start/finish, cancellation, join) and error status.
package otel
