package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type AppConfig struct {
	Port string

	// StoreDriver selects the document store: memory or sqlite.
	StoreDriver string
	SQLitePath  string

	LogLevel  string
	LogPretty bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// StatsInterval controls how often the stored-forecast gauge is refreshed.
	StatsInterval time.Duration

	// Store circuit breaker.
	BreakerFailures uint32        // consecutive failures before opening
	BreakerTimeout  time.Duration // how long the breaker stays open

	// SeedFile, when set, is loaded into the store on startup.
	SeedFile string
}

// Load reads configuration from the environment (and an optional .env file) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{
		Port:        getenvDefault("PORT", "8080"),
		StoreDriver: strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory)),
		SQLitePath:  getenvDefault("SQLITE_PATH", "weather-forecasts.db"),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		SeedFile:    os.Getenv("SEED_FILE"),
	}

	var err error
	if cfg.LogPretty, err = getenvBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getenvDuration("HTTP_READ_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getenvDuration("HTTP_WRITE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.StatsInterval, err = getenvDuration("STATS_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.BreakerTimeout, err = getenvDuration("STORE_BREAKER_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	if cfg.BreakerFailures, err = getenvUint32("STORE_BREAKER_FAILURES", 5); err != nil {
		return nil, err
	}
	if cfg.BreakerFailures == 0 {
		return nil, errors.New("STORE_BREAKER_FAILURES must be positive")
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", cfg.StoreDriver, DriverMemory, DriverSQLite)
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + c.Port
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvUint32 rejects negative and out-of-range values instead of wrapping.
func getenvUint32(key string, def uint32) (uint32, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return uint32(n), nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getenvDuration parses a positive duration, falling back to def when unset.
func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
