package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"storefront/internal/httpx"
	"storefront/internal/middleware"
)

// RouterConfig describes one service's HTTP surface.
type RouterConfig struct {
	Service     string
	DisplayName string
	BasePath    string
	Routes      http.Handler
	Responder   *httpx.Responder
	Logger      *zap.Logger
	Metrics     *middleware.Metrics
	RateLimiter *middleware.RateLimiter
	CORS        *middleware.CORS
	// TrustProxy takes the client address from forwarding headers. Only
	// enable it behind a proxy that overwrites them.
	TrustProxy  bool
}

// NewRouter mounts the service routes under BasePath behind the shared
// middleware stack. /health and /metrics are served outside the rate limit.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer(cfg.Responder, cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	if cfg.CORS != nil {
		r.Use(cfg.CORS.Handler)
	}
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
	}

	r.Get("/health", httpx.Health(cfg.Service, cfg.DisplayName))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Mount(cfg.BasePath, cfg.Routes)
	})

	r.NotFound(cfg.Responder.NotFound)
	r.MethodNotAllowed(cfg.Responder.MethodNotAllowed)

	return r
}
