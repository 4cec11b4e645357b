package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-forecasts/internal/observability"
)

const refreshTimeout = 10 * time.Second

// Counter reports how many forecasts the store currently holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Scheduler periodically refreshes the stored-forecasts gauge.
type Scheduler struct {
	scheduler *gocron.Scheduler
	counter   Counter
	metrics   *observability.Metrics
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(counter Counter, metrics *observability.Metrics, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		counter:   counter,
		metrics:   metrics,
		interval:  interval,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the stats job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.interval = time.Minute
	}

	_, err := s.scheduler.Every(s.interval).Do(s.refresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("stats job scheduled")
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	n, err := s.counter.Count(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("count stored forecasts")
		return
	}
	if s.metrics != nil {
		s.metrics.StoredForecasts.Set(float64(n))
	}
	s.log.Debug().Int("forecasts", n).Msg("stats refreshed")
}
