package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"festival-workers/internal/common/metrics"
)

// ErrCircuitOpen is returned without invoking the operation while the
// breaker is open, or while its single half-open trial is in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// State mirrors gobreaker's state machine.
type State string

const (
	StateClosed   State = "closed"
	StateHalfOpen State = "half-open"
	StateOpen     State = "open"
)

type BreakerSettings struct {
	Name string

	// FailureThreshold consecutive failures trip the breaker. Default 5.
	FailureThreshold uint32

	// ResetTimeout is how long the breaker stays open. Default 60s.
	ResetTimeout time.Duration

	// IsSuccessful classifies op errors; errors it accepts do not count
	// toward tripping. Nil means only a nil error is a success.
	IsSuccessful func(err error) bool

	// IsExcluded errors count as neither success nor failure.
	IsExcluded func(err error) bool

	Logger Logger
}

// DefaultBreakerSettings returns the production thresholds.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{Name: name, FailureThreshold: 5, ResetTimeout: 60 * time.Second}
}

// Breaker guards operations returning T.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

func NewBreaker[T any](s BreakerSettings) *Breaker[T] {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.ResetTimeout == 0 {
		s.ResetTimeout = 60 * time.Second
	}
	threshold := s.FailureThreshold
	log := s.Logger

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: s.IsSuccessful,
		IsExcluded:   s.IsExcluded,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, string(toState(from)), string(toState(to))).Inc()
			if log == nil {
				return
			}
			fields := map[string]interface{}{
				"breaker": name,
				"from":    string(toState(from)),
				"to":      string(toState(to)),
			}
			if to == gobreaker.StateOpen {
				log.Warn("Circuit breaker opened", fields)
			} else {
				log.Info("Circuit breaker state changed", fields)
			}
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	return &Breaker[T]{name: s.Name, cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs op through the breaker. Refusals wrap ErrCircuitOpen; op's
// own error is returned unchanged.
func (b *Breaker[T]) Execute(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	result, err := b.cb.Execute(func() (T, error) {
		return op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	return result, err
}

func (b *Breaker[T]) Name() string {
	return b.name
}

func (b *Breaker[T]) State() State {
	return toState(b.cb.State())
}

// ConsecutiveFailures reports the current failure streak.
func (b *Breaker[T]) ConsecutiveFailures() uint32 {
	return b.cb.Counts().ConsecutiveFailures
}

func toState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
