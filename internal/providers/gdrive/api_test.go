package gdrive

import (
	"testing"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
	"google.golang.org/api/googleapi"
)

// countingLimiter records every token acquisition.
type countingLimiter struct {
	acquired int
	err      error
}

func (l *countingLimiter) Acquire() error {
	l.acquired++
	return l.err
}

func fastBackoff(retries int) BackoffConfig {
	return BackoffConfig{
		Retries:   retries,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	}
}

func TestRunWithBackoffSuccess(t *testing.T) {
	limiter := &countingLimiter{}
	calls := 0

	err := RunWithBackoff(storage.NewStop(), limiter, fastBackoff(3), func() error {
		calls++
		return nil
	})
	test.OK(t, err)
	test.Equals(t, 1, calls)
	test.Equals(t, 1, limiter.acquired)
}

func TestRunWithBackoffRetriesTransientStatus(t *testing.T) {
	limiter := &countingLimiter{}
	calls := 0

	err := RunWithBackoff(storage.NewStop(), limiter, fastBackoff(5), func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 503}
		}
		return nil
	})
	test.OK(t, err)
	test.Equals(t, 3, calls)
	// one limiter token per attempt
	test.Equals(t, 3, limiter.acquired)
}

func TestRunWithBackoffAttemptBudget(t *testing.T) {
	limiter := &countingLimiter{}
	calls := 0

	err := RunWithBackoff(storage.NewStop(), limiter, fastBackoff(2), func() error {
		calls++
		return &googleapi.Error{Code: 429}
	})
	test.Assert(t, err != nil, "expected the final attempt's error")
	// initial attempt plus two retries
	test.Equals(t, 3, calls)

	var apiErr *googleapi.Error
	test.Assert(t, errors.As(err, &apiErr), "expected a googleapi error, got %T", err)
	test.Equals(t, 429, apiErr.Code)
}

func TestRunWithBackoffNonRetryableFailsFast(t *testing.T) {
	limiter := &countingLimiter{}
	calls := 0

	err := RunWithBackoff(storage.NewStop(), limiter, fastBackoff(5), func() error {
		calls++
		return &googleapi.Error{Code: 403}
	})
	test.Assert(t, err != nil, "expected an error")
	test.Equals(t, 1, calls)
}

func TestRunWithBackoffArbitraryErrorFailsFast(t *testing.T) {
	calls := 0
	err := RunWithBackoff(storage.NewStop(), &countingLimiter{}, fastBackoff(5), func() error {
		calls++
		return errors.New("broken pipe")
	})
	test.Assert(t, err != nil, "expected an error")
	test.Equals(t, 1, calls)
}

func TestRunWithBackoffLimiterShutdown(t *testing.T) {
	limiter := &countingLimiter{err: errors.ErrShutdownRequested}
	calls := 0

	err := RunWithBackoff(storage.NewStop(), limiter, fastBackoff(5), func() error {
		calls++
		return nil
	})
	test.Assert(t, errors.IsShutdown(err), "expected a shutdown error, got %v", err)
	test.Equals(t, 0, calls)
}

func TestRunWithBackoffStopCancelsRetryWait(t *testing.T) {
	stop := storage.NewStop()
	limiter := &countingLimiter{}

	cfg := BackoffConfig{Retries: 5, BaseDelay: time.Minute, MaxDelay: time.Minute}
	done := make(chan error, 1)
	go func() {
		done <- RunWithBackoff(stop, limiter, cfg, func() error {
			return &googleapi.Error{Code: 500}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	stop.Set()

	select {
	case err := <-done:
		test.Assert(t, errors.IsShutdown(err), "expected a shutdown error, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("retry wait was not canceled by the stop signal")
	}
}

func TestEstimatedDelay(t *testing.T) {
	cfg := BackoffConfig{BaseDelay: time.Second, MaxDelay: 10 * time.Second}
	test.Equals(t, time.Second, estimatedDelay(cfg, 1))
	test.Equals(t, 2*time.Second, estimatedDelay(cfg, 2))
	test.Equals(t, 8*time.Second, estimatedDelay(cfg, 4))
	test.Equals(t, 10*time.Second, estimatedDelay(cfg, 10))
}
