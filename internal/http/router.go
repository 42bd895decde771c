package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/http/handlers"
	"github.com/sosbeacon/server/internal/metrics"
	"github.com/sosbeacon/server/internal/middleware"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	emergencyHandler *handlers.EmergencyHandler,
	limiter *middleware.RateLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(m.Middleware)
	r.Use(middleware.Recoverer(logger))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method("GET", "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(limiter, middleware.GetIPKey))

		r.Post("/phone", emergencyHandler.HandleSaveContact)
		r.Post("/sos", emergencyHandler.HandleSendSOS)
		r.Post("/video/upload", emergencyHandler.HandleUploadVideo)
	})

	return r
}
