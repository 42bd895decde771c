// Package app wires configuration, storage, adapters and the HTTP router
// into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/config"
	"github.com/sosbeacon/server/internal/db"
	"github.com/sosbeacon/server/internal/dispatch"
	"github.com/sosbeacon/server/internal/emergency"
	httphandler "github.com/sosbeacon/server/internal/http"
	"github.com/sosbeacon/server/internal/http/handlers"
	"github.com/sosbeacon/server/internal/metrics"
	"github.com/sosbeacon/server/internal/middleware"
	"github.com/sosbeacon/server/internal/repo"
)

// App is a fully wired server
type App struct {
	Handler http.Handler
	Store   repo.Store
	Metrics *metrics.Metrics

	limiter *middleware.RateLimiter
}

// New builds the app for cfg. The store is opened according to
// cfg.StoreDriver; Postgres is migrated before use.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	dispatcher := dispatch.NewStubDispatcher(dispatch.DispatchDelay, cfg.SimulateDispatchFailure, logger.Named("dispatch"))
	uploader := dispatch.NewStubUploader(dispatch.UploadDelay, cfg.SimulateUploadFailure, logger.Named("upload"))
	service := emergency.NewService(store, dispatcher, uploader, m, logger.Named("emergency"))

	emergencyHandler := handlers.NewEmergencyHandler(service, m, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitRequests)

	return &App{
		Handler: httphandler.NewRouter(emergencyHandler, limiter, m, logger.Named("http")),
		Store:   store,
		Metrics: m,
		limiter: limiter,
	}, nil
}

// Close releases the store and background workers
func (a *App) Close() error {
	a.limiter.Close()
	return a.Store.Close()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repo.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Info("using in-memory record store")
		return repo.NewMemoryStore(), nil
	case config.StorePostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
		return repo.NewPostgresStore(database), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
