package main

import (
	"os"

	"github.com/i474232898/weather-forecasts/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
