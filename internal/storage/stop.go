package storage

import "context"

// Stop is the one-shot, process-wide shutdown signal. It wraps a cancellable
// context so that blocking calls into remote SDKs observe it directly. Set is
// idempotent and the signal is never cleared.
type Stop struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewStop returns a fresh, unset stop signal.
func NewStop() *Stop {
	return StopWithContext(context.Background())
}

// StopWithContext returns a stop signal that is additionally set when parent
// is cancelled. This is how the termination signal handler reaches every
// component.
func StopWithContext(parent context.Context) *Stop {
	ctx, cancel := context.WithCancel(parent)
	return &Stop{ctx: ctx, cancel: cancel}
}

// Set marks the signal. Safe to call multiple times and from any goroutine.
func (s *Stop) Set() { s.cancel() }

// IsSet reports whether the signal has been set.
func (s *Stop) IsSet() bool { return s.ctx.Err() != nil }

// Done returns a channel closed once the signal is set.
func (s *Stop) Done() <-chan struct{} { return s.ctx.Done() }

// Context returns the context bound to the signal, for remote calls.
func (s *Stop) Context() context.Context { return s.ctx }
