// Package resilience holds the retry and circuit breaker wrappers placed
// around provider and catalog calls.
package resilience

import (
	"context"
	"time"
)

// RetryPolicy controls Retry. The delay before attempt n+1 is
// BaseDelay * 2^(n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each wait.
	OnRetry func(name string, attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy is three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Delay returns the wait that follows the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<(attempt-1))
}

// Retry runs op until it succeeds, shouldRetry rejects the error, or
// MaxAttempts is reached. A nil shouldRetry retries every error. The last
// error is returned as is so callers can match on it.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	name string,
	op func(ctx context.Context) (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == maxAttempts || (shouldRetry != nil && !shouldRetry(err)) {
			break
		}

		delay := policy.Delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(name, attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
	}
	return result, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
