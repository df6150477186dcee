package errors

import (
	"context"
	stderrors "errors"
)

// ErrShutdownRequested is returned by blocking operations that were
// interrupted by the process-wide shutdown signal. It propagates up through
// the limiter, the backoff executor and the extractors so that the ingest
// orchestrator can drain cooperatively instead of treating the interruption
// as a per-file failure.
var ErrShutdownRequested = stderrors.New("shutdown requested")

// IsShutdown reports whether err was caused by the shutdown signal. Context
// cancellation counts: all waits in this module are bound to the signal's
// context.
func IsShutdown(err error) bool {
	return stderrors.Is(err, ErrShutdownRequested) || stderrors.Is(err, context.Canceled)
}
