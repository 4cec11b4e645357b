package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-forecasts/internal/api/http"
	"github.com/i474232898/weather-forecasts/internal/config"
	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/logger"
	"github.com/i474232898/weather-forecasts/internal/observability"
	"github.com/i474232898/weather-forecasts/internal/scheduler"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the forecast HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	metrics := observability.NewMetrics()

	docs, closeStore, err := openStore(cfg, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	repo := forecast.NewRepository(docs)

	if cfg.SeedFile != "" {
		report, err := seedFromFile(ctx, repo, cfg.SeedFile, false)
		if err != nil {
			return err
		}
		log.Info().
			Str("file", cfg.SeedFile).
			Int("created", report.Created).
			Int("skipped", report.Skipped).
			Msg("seeded forecasts")
	}

	sched := scheduler.New(docs, metrics, cfg.StatsInterval, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.AppConfig{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       log,
		Metrics:      metrics,
	})
	httpapi.RegisterOps(app, docs)
	httpapi.RegisterRoutes(app, repo, log, metrics)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("store", cfg.StoreDriver).Msg("starting forecast API")
		listenErr <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}
