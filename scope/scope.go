package scope

import (
	"context"
	"errors"
	"sync"
	"time"
)

type state int

const (
	statePending state = iota
	stateActive
	stateExited
)

// cancelled is the cancellation cause a Scope installs on its context.
// Each Scope carries its own instance so Exit can attribute an observed
// cancellation to the scope that issued it rather than an ancestor.
type cancelled struct{ s *Scope }

func (c *cancelled) Error() string { return "scope: cancelled" }

// Option configures a Scope.
type Option func(*Scope)

// WithDeadline sets an absolute deadline. The scope cancels itself when
// the clock passes it.
func WithDeadline(t time.Time) Option {
	return func(s *Scope) {
		s.deadline = t
		s.hasDeadline = true
	}
}

// WithTimeout sets a deadline relative to the moment the scope is
// entered, not the moment it is constructed.
func WithTimeout(d time.Duration) Option {
	return func(s *Scope) { s.timeout = d }
}

// WithShield makes the scope ignore cancellation arriving from ancestor
// scopes. Its own Cancel and deadline still apply.
func WithShield() Option {
	return func(s *Scope) { s.shielded = true }
}

// Scope is a cancellation/deadline boundary. It starts pending, becomes
// active on Enter, and is finished by Exit. Cancel may be called at any
// point, including before Enter.
type Scope struct {
	mu sync.Mutex

	state       state
	deadline    time.Time
	hasDeadline bool
	timeout     time.Duration
	shielded    bool

	cancelCalled    bool
	cancelledCaught bool

	cause    *cancelled
	ctx      context.Context
	cancelFn context.CancelCauseFunc
	timer    *time.Timer
}

// New constructs a pending Scope.
func New(opts ...Option) *Scope {
	s := &Scope{}
	s.cause = &cancelled{s: s}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enter activates the scope under parent and returns the context the
// body must run with. If the scope is shielded the context is detached
// from parent's cancellation (values and trace data still flow). A
// deadline, if configured, is armed here.
//
// Enter panics if the scope was already entered; scopes are single-use.
func (s *Scope) Enter(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statePending {
		panic("scope: Enter called on an already-entered scope")
	}
	if s.timeout > 0 {
		s.deadline = time.Now().Add(s.timeout)
		s.hasDeadline = true
	}
	base := parent
	if s.shielded {
		base = context.WithoutCancel(parent)
	}
	ctx, cancel := context.WithCancelCause(base)
	s.ctx = ctx
	s.cancelFn = cancel
	s.state = stateActive

	switch {
	case s.cancelCalled:
		cancel(s.cause)
	case s.hasDeadline:
		d := time.Until(s.deadline)
		if d <= 0 {
			s.cancelCalled = true
			cancel(s.cause)
		} else {
			s.timer = time.AfterFunc(d, s.Cancel)
		}
	}
	return ctx
}

// Cancel requests cancellation of the scope. It is idempotent and may
// be called before Enter, in which case the body is cancelled at its
// first suspension point. Cancellation is cooperative: it is delivered
// through the scope context's Done channel.
func (s *Scope) Cancel() {
	s.mu.Lock()
	s.cancelCalled = true
	cancel := s.cancelFn
	cause := s.cause
	s.mu.Unlock()
	if cancel != nil {
		cancel(cause)
	}
}

// Exit finishes the scope with the error returned by its body. If the
// error reflects a cancellation that originated in this scope (its own
// Cancel or deadline, not an ancestor's), Exit swallows it, marks the
// scope CancelledCaught, and returns nil. Every other error passes
// through unchanged.
func (s *Scope) Exit(err error) error {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		panic("scope: Exit called on a scope that is not active")
	}
	s.state = stateExited
	if s.timer != nil {
		s.timer.Stop()
	}
	ctx, cancel, cause := s.ctx, s.cancelFn, s.cause
	s.mu.Unlock()

	defer cancel(cause)

	if err == nil {
		return nil
	}
	if context.Cause(ctx) == cause && isCancellation(err, cause) {
		s.mu.Lock()
		s.cancelledCaught = true
		s.mu.Unlock()
		return nil
	}
	return err
}

// isCancellation reports whether err looks like cancellation unwind
// rather than a real failure.
func isCancellation(err error, cause error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, cause)
}

// CancelCalled reports whether cancellation was requested on this
// scope, by Cancel or by its deadline.
func (s *Scope) CancelCalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelCalled
}

// CancelledCaught reports whether this scope, not an ancestor, was the
// one whose cancellation was observed and swallowed at Exit.
func (s *Scope) CancelledCaught() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelledCaught
}

// Deadline returns the scope's deadline, if one is set. Before Enter a
// relative timeout is not yet resolved to an absolute time.
func (s *Scope) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.hasDeadline
}

// Context returns the scope's context. It is nil before Enter.
func (s *Scope) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Run executes fn inside a fresh scope: Enter, call, Exit.
func Run(parent context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	s := New(opts...)
	ctx := s.Enter(parent)
	return s.Exit(fn(ctx))
}

// Sleep pauses for d or until ctx is cancelled, whichever comes first.
// It is the library's cancellable suspension point; bodies that sleep
// with it observe scope cancellation promptly.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
