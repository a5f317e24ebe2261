// Package http exposes the conversion engine over HTTP.
package http

import (
	"net/http"
	"time"

	"github.com/Point72/chatom/adapters/idgen"
	"github.com/Point72/chatom/adapters/metrics"
	"github.com/Point72/chatom/app"
	"github.com/Point72/chatom/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler      // Metrics exporter, mounted at MetricsPath when set
	MetricsPath    string            // Default: /metrics
	IDs            ports.IDGenerator // Request ID generator (default: UUID)
	Version        string
}

// NewRouter creates the HTTP router.
func NewRouter(convert *app.ConvertService, types *app.TypeService, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.IDs == nil {
		cfg.IDs = idgen.UUID{}
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	h := &Handler{convert: convert, types: types, logger: logger, version: cfg.Version}

	r := chi.NewRouter()

	// Middleware
	r.Use(NewRequestIDMiddleware(cfg.IDs))
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}

	r.Get("/healthz", h.Health)
	r.Get("/version", h.Version)

	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	}

	r.Route("/types", func(r chi.Router) {
		r.Get("/", h.ListTypes)
		r.Get("/{name}", h.GetType)
		r.Get("/{name}/backends", h.TypeBackends)
	})

	r.Post("/validate/{backend}", h.Validate)
	r.Post("/promote/{backend}", h.Promote)
	r.Post("/demote", h.Demote)

	return r
}
