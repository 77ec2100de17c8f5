package task

import (
	"fmt"
	"runtime"
	"strings"
)

// AggregateError carries the failures of two or more sibling tasks, in
// spawn order. A group with exactly one failure returns that error
// unchanged instead; an AggregateError therefore always holds at least
// two errors.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d tasks failed: ", len(e.Errors))
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the contained errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// aggregate collapses a failure list: empty is no error, a single
// failure propagates unchanged, anything more becomes an
// AggregateError.
func aggregate(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}

// PanicError wraps a panic recovered from a task together with the
// goroutine stack captured at the point of the panic.
type PanicError struct {
	// Value is the original value passed to panic.
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task: panic: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	// runtime.Stack truncates gracefully if the buffer is too small.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}
