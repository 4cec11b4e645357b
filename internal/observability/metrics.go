package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the forecast API.
type Metrics struct {
	Requests          *prometheus.CounterVec // labels: operation, outcome
	Conflicts         *prometheus.CounterVec // labels: kind={already_exists,version_conflict}
	StoredForecasts   prometheus.Gauge
	StoreBreakerOpen  prometheus.Gauge
	RequestDurationMs *prometheus.HistogramVec // labels: operation
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Requests,
		m.Conflicts,
		m.StoredForecasts,
		m.StoreBreakerOpen,
		m.RequestDurationMs,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecasts",
			Name:      "requests_total",
			Help:      "Forecast API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecasts",
			Name:      "conflicts_total",
			Help:      "Rejected writes by conflict kind.",
		}, []string{"kind"}),
		StoredForecasts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecasts",
			Name:      "stored",
			Help:      "Number of forecasts in the store at the last refresh.",
		}),
		StoreBreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecasts",
			Name:      "store_breaker_open",
			Help:      "1 while the store circuit breaker is open, 0 otherwise.",
		}),
		RequestDurationMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forecasts",
			Name:      "request_duration_milliseconds",
			Help:      "Forecast API handler latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"operation"}),
	}
}
