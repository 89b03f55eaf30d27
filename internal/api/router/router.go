package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-slots/internal/availability"
	"github.com/wolfman30/clinic-slots/internal/clinic"
	httpmiddleware "github.com/wolfman30/clinic-slots/internal/http/middleware"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	ClinicHandler       *clinic.Handler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	HealthChecks        map[string]HealthCheck

	// RateLimitRPS <= 0 disables rate limiting of the public booking API.
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	// Stop ends background work owned by the router, such as limiter sweeps.
	Stop <-chan struct{}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AvailabilityHandler != nil {
			var mws []func(http.Handler) http.Handler
			if cfg.RateLimitRPS > 0 {
				mws = append(mws, httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Stop))
			}
			if cfg.RequestTimeout > 0 {
				mws = append(mws, middleware.Timeout(cfg.RequestTimeout))
			}
			public.With(mws...).Mount("/api/booking", cfg.AvailabilityHandler.Routes())
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.ClinicHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Mount("/clinics", cfg.ClinicHandler.Routes())
		})
	}

	return r
}
