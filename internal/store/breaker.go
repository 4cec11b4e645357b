package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecasts/internal/forecast"
)

// BreakerConfig controls when the store circuit opens and how long it stays open.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	// OnStateChange, when set, is called after every transition.
	OnStateChange func(from, to gobreaker.State)
}

// BreakerStore guards a DocumentStore with a circuit breaker. Infrastructure
// failures trip it; expected outcomes such as a missing id or a stale token do not.
// Calls are never retried here.
type BreakerStore struct {
	inner   forecast.DocumentStore
	circuit *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner forecast.DocumentStore, cfg BreakerConfig, logger zerolog.Logger) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "forecast-store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				forecast.IsDomainError(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from, to)
			}
		},
	})

	return &BreakerStore{inner: inner, circuit: cb}
}

// State exposes the current breaker state.
func (b *BreakerStore) State() gobreaker.State {
	return b.circuit.State()
}

func (b *BreakerStore) FindAll(ctx context.Context) ([]forecast.Forecast, error) {
	return guard(b, func() ([]forecast.Forecast, error) { return b.inner.FindAll(ctx) })
}

func (b *BreakerStore) FindOne(ctx context.Context, id int) (forecast.Forecast, error) {
	return guard(b, func() (forecast.Forecast, error) { return b.inner.FindOne(ctx, id) })
}

func (b *BreakerStore) InsertOne(ctx context.Context, f forecast.Forecast) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, b.inner.InsertOne(ctx, f) })
	return err
}

func (b *BreakerStore) ReplaceOne(ctx context.Context, f forecast.Forecast, expectedETag string) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, b.inner.ReplaceOne(ctx, f, expectedETag) })
	return err
}

func (b *BreakerStore) DeleteOne(ctx context.Context, id int) (int, error) {
	return guard(b, func() (int, error) { return b.inner.DeleteOne(ctx, id) })
}

func (b *BreakerStore) Count(ctx context.Context) (int, error) {
	return guard(b, func() (int, error) { return b.inner.Count(ctx) })
}

func (b *BreakerStore) Ping(ctx context.Context) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, b.inner.Ping(ctx) })
	return err
}

// guard runs fn through the circuit breaker. Domain errors pass through
// untouched; an open circuit is reported as forecast.ErrStoreUnavailable.
func guard[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	var zero T

	result, err := b.circuit.Execute(func() (interface{}, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", forecast.ErrStoreUnavailable, err)
		}
		return zero, err
	}

	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return v, nil
}
