package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecasts/internal/config"
	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/observability"
	"github.com/i474232898/weather-forecasts/internal/store"
)

// openStore builds the configured document store behind the circuit breaker.
// The returned close func releases the underlying database, if any.
func openStore(cfg *config.AppConfig, log zerolog.Logger, metrics *observability.Metrics) (*store.BreakerStore, func() error, error) {
	var (
		inner     forecast.DocumentStore
		closeFunc = func() error { return nil }
	)

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		inner, closeFunc = db, db.Close
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
	default:
		inner = store.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	}

	guarded := store.NewBreakerStore(inner, store.BreakerConfig{
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerTimeout,
		OnStateChange: func(_, to gobreaker.State) {
			if metrics == nil {
				return
			}
			if to == gobreaker.StateOpen {
				metrics.StoreBreakerOpen.Set(1)
			} else {
				metrics.StoreBreakerOpen.Set(0)
			}
		},
	}, log)

	return guarded, closeFunc, nil
}
