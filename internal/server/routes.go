package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maauso/silencecut/internal/metrics"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing. events serves the
// websocket stream; m may be nil to disable request metrics.
func NewRouter(h *Handlers, events http.Handler, m *metrics.Metrics, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /api/jobs", h.CreateJob)
	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/defaults", h.Defaults)
	if events != nil {
		mux.Handle("GET /api/events", events)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware chain
	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	}
	if m != nil {
		middlewares = append(middlewares, MetricsMiddleware(m))
	}
	middlewares = append(middlewares, CORSMiddleware(cfg.AllowedOrigins))

	return ChainMiddleware(middlewares...)(mux)
}
