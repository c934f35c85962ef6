package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider unavailable")

type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestRetry_ExhaustsAttemptsAndReturnsOriginalError(t *testing.T) {
	rec := &recordingSleep{}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Sleep: rec.sleep}

	calls := 0
	_, err := Retry(context.Background(), policy, "always-fails", func(ctx context.Context) (string, error) {
		calls++
		return "", errProvider
	}, nil)

	assert.Same(t, errProvider, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rec.delays)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	rec := &recordingSleep{}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: rec.sleep}

	calls := 0
	got, err := Retry(context.Background(), policy, "flaky", func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errProvider
		}
		return 42, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsWhenShouldRetryRejects(t *testing.T) {
	errInvalid := errors.New("schema mismatch")
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Sleep: (&recordingSleep{}).sleep}

	calls := 0
	_, err := Retry(context.Background(), policy, "validation", func(ctx context.Context) (int, error) {
		calls++
		return 0, errInvalid
	}, func(err error) bool { return !errors.Is(err, errInvalid) })

	assert.ErrorIs(t, err, errInvalid)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}

	calls := 0
	_, err := Retry(ctx, policy, "cancelled", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errProvider
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_OnRetryHook(t *testing.T) {
	var attempts []int
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep:       (&recordingSleep{}).sleep,
		OnRetry: func(name string, attempt int, delay time.Duration, err error) {
			assert.Equal(t, "hooked", name)
			attempts = append(attempts, attempt)
		},
	}

	_, _ = Retry(context.Background(), policy, "hooked", func(ctx context.Context) (int, error) {
		return 0, errProvider
	}, nil)

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	b := NewBreaker[string](BreakerSettings{
		Name:             "test-breaker-transitions",
		FailureThreshold: 5,
		ResetTimeout:     50 * time.Millisecond,
	})
	ctx := context.Background()

	invocations := 0
	failing := func(ctx context.Context) (string, error) {
		invocations++
		return "", errProvider
	}

	for i := 0; i < 5; i++ {
		_, err := b.Execute(ctx, failing)
		assert.Same(t, errProvider, err)
	}
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 5, invocations)

	_, err := b.Execute(ctx, failing)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, invocations, "open breaker must not invoke the operation")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	got, err := b.Execute(ctx, func(ctx context.Context) (string, error) {
		invocations++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 6, invocations)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(0), b.ConsecutiveFailures())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker[int](BreakerSettings{
		Name:             "test-breaker-reopen",
		FailureThreshold: 1,
		ResetTimeout:     30 * time.Millisecond,
	})
	ctx := context.Background()
	fail := func(ctx context.Context) (int, error) { return 0, errProvider }

	_, _ = b.Execute(ctx, fail)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(50 * time.Millisecond)
	_, err := b.Execute(ctx, fail)
	assert.Same(t, errProvider, err)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	errValidation := errors.New("bad shape")
	b := NewBreaker[int](BreakerSettings{
		Name:             "test-breaker-classify",
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errValidation)
		},
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(context.Background(), func(ctx context.Context) (int, error) {
			return 0, errValidation
		})
		assert.ErrorIs(t, err, errValidation)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IsExcludedLeavesCountsAlone(t *testing.T) {
	errProvider := errors.New("503")
	b := NewBreaker[int](BreakerSettings{
		Name:             "test-breaker-exclude",
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
	cancelled := func(ctx context.Context) (int, error) { return 0, context.Canceled }
	fail := func(ctx context.Context) (int, error) { return 0, errProvider }

	_, _ = b.Execute(context.Background(), fail)
	for i := 0; i < 3; i++ {
		_, err := b.Execute(context.Background(), cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, b.State())
	assert.EqualValues(t, 1, b.ConsecutiveFailures())

	_, _ = b.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, b.State())
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: 500 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 500*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(2))
	assert.Equal(t, 2*time.Second, p.Delay(3))
}
