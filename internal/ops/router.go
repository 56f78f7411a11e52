package ops

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config holds the dependencies for the ops router.
type Config struct {
	Logger    zerolog.Logger
	Version   string
	BuildTime string

	// Checks back the readiness probe. An empty list reports ready.
	Checks []Check

	// RateLimit bounds probe traffic per IP. The zero value falls back
	// to DefaultRateLimit.
	RateLimit RateLimitConfig
}

// NewRouter creates the ops router with the standard middleware chain.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.RateLimit.RequestLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(cfg.Logger))
	r.Use(Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(RateLimitByIP(cfg.RateLimit))

	r.Get("/healthz", healthHandler(cfg.Version, cfg.BuildTime))
	r.Get("/readyz", readyHandler(cfg.Checks))

	return r
}
