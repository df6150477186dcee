// Package limiter provides the token-bucket request gate shared by every
// remote API call. The bucket itself is golang.org/x/time/rate, which refills
// on the monotonic clock and clamps at the configured burst; this package
// binds the wait to the shutdown signal.
package limiter

import (
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"golang.org/x/time/rate"
)

// TokenBucket hands out one permit per outbound request. Safe for concurrent
// use; no internal lock is held while a caller waits.
type TokenBucket struct {
	bucket *rate.Limiter
	stop   *storage.Stop
}

// statically ensure that TokenBucket implements storage.Limiter.
var _ storage.Limiter = &TokenBucket{}

// New constructs a bucket with the given fill rate (tokens/second) and
// capacity. The bucket starts full.
func New(rps float64, burst int, stop *storage.Stop) *TokenBucket {
	return &TokenBucket{
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
		stop:   stop,
	}
}

// Acquire consumes one token, waiting for the refill when the bucket is
// empty. When no other permits are pending the wait is bounded by one refill
// interval (1/rps). Returns errors.ErrShutdownRequested as soon as the stop
// signal is set, including while waiting.
func (l *TokenBucket) Acquire() error {
	if l.stop.IsSet() {
		return errors.ErrShutdownRequested
	}
	if err := l.bucket.Wait(l.stop.Context()); err != nil {
		return errors.ErrShutdownRequested
	}
	return nil
}
