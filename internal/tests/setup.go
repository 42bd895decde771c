// Package tests holds end-to-end tests that drive the full HTTP stack.
package tests

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/config"
	"github.com/sosbeacon/server/internal/db"
)

// TestConfig returns the server defaults for the given store driver, with a
// rate limit high enough not to interfere with the tests
func TestConfig(driver, databaseURL string) *config.Config {
	return &config.Config{
		Port:                    "0",
		StoreDriver:             driver,
		DatabaseURL:             databaseURL,
		LogLevel:                "error",
		SimulateDispatchFailure: true,
		SimulateUploadFailure:   true,
		RateLimitRequests:       1000,
		RateLimitWindow:         time.Minute,
	}
}

// ResetDatabase migrates the database and empties every table so ids start at 1
func ResetDatabase(ctx context.Context, databaseURL string) error {
	database, err := db.Open(ctx, databaseURL, zap.NewNop())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	return db.TruncateAll(ctx, database)
}
