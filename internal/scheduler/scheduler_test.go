package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/observability"
	"github.com/i474232898/weather-forecasts/internal/store"
)

type brokenCounter struct{}

func (brokenCounter) Count(context.Context) (int, error) { return 0, errors.New("boom") }

func TestRefreshSetsGauge(t *testing.T) {
	mem := store.NewMemoryStore()
	for id := 1; id <= 3; id++ {
		require.NoError(t, mem.InsertOne(context.Background(), forecast.Forecast{ID: id, ETag: "t"}))
	}
	metrics := observability.NewMetricsForTesting()

	s := New(mem, metrics, time.Minute, zerolog.Nop())
	s.refresh()

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.StoredForecasts))
}

func TestRefreshKeepsLastValueOnError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	metrics.StoredForecasts.Set(7)

	s := New(brokenCounter{}, metrics, time.Minute, zerolog.Nop())
	s.refresh()

	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.StoredForecasts))
}

func TestStartRunsImmediately(t *testing.T) {
	mem := store.NewMemoryStore()
	require.NoError(t, mem.InsertOne(context.Background(), forecast.Forecast{ID: 1, ETag: "t"}))
	metrics := observability.NewMetricsForTesting()

	s := New(mem, metrics, time.Hour, zerolog.Nop())
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.StoredForecasts) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
