package gdrive

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"google.golang.org/api/googleapi"
)

// retryableStatuses are the HTTP statuses worth retrying: rate limiting and
// transient server errors. Everything else fails the call immediately.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// BackoffConfig bounds the retry behavior for Google API calls.
type BackoffConfig struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// RunWithBackoff runs op under the rate limiter with exponential backoff.
// Every attempt, including retries, first acquires a limiter token. Retries
// happen only for the retryable HTTP statuses; a set stop flag or a canceled
// context surfaces as ErrShutdownRequested.
func RunWithBackoff(stop *storage.Stop, limiter storage.Limiter, cfg BackoffConfig, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.BaseDelay
	policy.Multiplier = 2
	policy.MaxInterval = cfg.MaxDelay
	policy.RandomizationFactor = 0.3
	policy.MaxElapsedTime = 0
	policy.Reset()

	attempt := 0
	wrapped := func() error {
		if err := limiter.Acquire(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++

		err := op()
		if err == nil {
			return nil
		}
		if errors.IsShutdown(err) {
			return backoff.Permanent(errors.ErrShutdownRequested)
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && retryableStatuses[apiErr.Code] {
			logging.Warn("google_api_retry", "gdrive", "api", logging.Meta{
				"status":               apiErr.Code,
				"attempt":              attempt,
				"max_retries":          cfg.Retries,
				"delay_seconds":        estimatedDelay(cfg, attempt).Seconds(),
				"backoff_base_seconds": cfg.BaseDelay.Seconds(),
				"backoff_max_seconds":  cfg.MaxDelay.Seconds(),
			})
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.Retries)), stop.Context())
	err := backoff.Retry(wrapped, b)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.ErrShutdownRequested
	}
	return err
}

// estimatedDelay is the nominal delay before the next attempt, without
// jitter. Only used for the retry log line.
func estimatedDelay(cfg BackoffConfig, attempt int) time.Duration {
	d := cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}
