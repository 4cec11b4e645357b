package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-forecasts/internal/config"
	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/logger"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	File  string
	Reset bool
}

// SeedReport summarizes a seed run.
type SeedReport struct {
	Removed int
	Created int
	Skipped int // ids that already existed
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load forecasts from a JSON file into the configured store",
		Long: `Load a JSON array of forecasts through the repository. Each record gets a
fresh eTag unless the file supplies one. Existing ids are skipped, not overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to a JSON array of forecasts")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "remove every stored forecast before loading")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: cmd.ErrOrStderr()})

	docs, closeStore, err := openStore(cfg, log, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := seedFromFile(cmd.Context(), forecast.NewRepository(docs), opts.File, opts.Reset)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d, created %d, skipped %d\n", report.Removed, report.Created, report.Skipped)
	return nil
}

func seedFromFile(ctx context.Context, repo forecast.Repository, path string, reset bool) (SeedReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedReport{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return seedForecasts(ctx, repo, f, reset)
}

// seedForecasts inserts every forecast decoded from r. With reset, all stored
// forecasts are removed first.
func seedForecasts(ctx context.Context, repo forecast.Repository, r io.Reader, reset bool) (SeedReport, error) {
	var items []forecast.Forecast
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return SeedReport{}, fmt.Errorf("decode seed file: %w", err)
	}

	var report SeedReport
	if reset {
		existing, err := repo.List(ctx)
		if err != nil {
			return report, fmt.Errorf("list forecasts: %w", err)
		}
		for _, f := range existing {
			n, err := repo.Remove(ctx, f.ID)
			if err != nil {
				return report, fmt.Errorf("remove forecast %d: %w", f.ID, err)
			}
			report.Removed += n
		}
	}

	for _, f := range items {
		res, err := repo.Insert(ctx, f)
		if err != nil {
			return report, fmt.Errorf("insert forecast %d: %w", f.ID, err)
		}
		switch res.Outcome {
		case forecast.InsertCreated:
			report.Created++
		case forecast.InsertAlreadyExists:
			report.Skipped++
		}
	}

	return report, nil
}
