package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Port        string
	StoreDriver string
	DatabaseURL string
	LogLevel    string
	DevMode     bool

	// SimulateDispatchFailure makes the SOS dispatch stub always fail
	SimulateDispatchFailure bool
	// SimulateUploadFailure makes the video upload stub always fail
	SimulateUploadFailure bool

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    "8080",
		StoreDriver:             StoreMemory,
		LogLevel:                "info",
		SimulateDispatchFailure: true,
		SimulateUploadFailure:   true,
		RateLimitRequests:       60,
		RateLimitWindow:         time.Minute,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))); driver != "" {
		if driver != StoreMemory && driver != StorePostgres {
			return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, driver)
		}
		cfg.StoreDriver = driver
	}

	// DATABASE_URL is only required for the durable store
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreDriver == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required when STORE_DRIVER=%s", StorePostgres)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	var err error
	if cfg.DevMode, err = envBool("DEV_MODE", false); err != nil {
		return nil, err
	}
	if cfg.SimulateDispatchFailure, err = envBool("SIMULATE_DISPATCH_FAILURE", cfg.SimulateDispatchFailure); err != nil {
		return nil, err
	}
	if cfg.SimulateUploadFailure, err = envBool("SIMULATE_UPLOAD_FAILURE", cfg.SimulateUploadFailure); err != nil {
		return nil, err
	}

	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be a positive integer, got %q", v)
		}
		cfg.RateLimitRequests = n
	}

	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration, got %q", v)
		}
		cfg.RateLimitWindow = d
	}

	return cfg, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
