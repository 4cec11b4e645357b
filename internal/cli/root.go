package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the weather-forecasts binary.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather-forecasts",
		Short: "Weather forecast API with optimistic concurrency",
		Long: `Serves CRUD endpoints for weather forecasts. Every record carries an eTag
that must be presented on update; stale eTags are rejected with 409.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewSeedCommand())

	return cmd
}
