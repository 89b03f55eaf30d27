package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-slots/internal/api/router"
	"github.com/wolfman30/clinic-slots/internal/app/bootstrap"
	"github.com/wolfman30/clinic-slots/internal/availability"
	"github.com/wolfman30/clinic-slots/internal/clinic"
	appconfig "github.com/wolfman30/clinic-slots/internal/config"
	"github.com/wolfman30/clinic-slots/internal/observability/metrics"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

func main() {
	envErr := godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}
	logger.Info("starting clinic-slots API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if err := checkProductionConfig(cfg); err != nil {
		logger.Error("refusing to start", "error", err)
		os.Exit(1)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin schedule routes disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect dependencies", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	stores, err := bootstrap.BuildStores(rt.Redis, rt.Pool, rt.SQL)
	if err != nil {
		logger.Error("failed to build stores", "error", err)
		os.Exit(1)
	}

	metricsHandler, slotMetrics := setupSlotMetrics()
	handler := newAPIHandler(cfg, stores, rt, metricsHandler, slotMetrics, ctx.Done(), logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		rt.Close()
		os.Exit(1)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// checkProductionConfig rejects settings that are only acceptable in
// development: no admin secret, or a wildcard CORS origin.
func checkProductionConfig(cfg *appconfig.Config) error {
	if !cfg.IsProduction() {
		return nil
	}
	if cfg.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is required in production")
	}
	if slices.Contains(cfg.CORSAllowedOrigins, "*") {
		return errors.New("CORS_ALLOWED_ORIGINS must not contain * in production")
	}
	return nil
}

// setupSlotMetrics registers the booking metrics on a private registry along
// with the Go runtime collectors.
func setupSlotMetrics() (http.Handler, *metrics.SlotMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewSlotMetrics(reg)
}

func newAPIHandler(cfg *appconfig.Config, stores availability.Stores, rt *bootstrap.Runtime, metricsHandler http.Handler, slotMetrics *metrics.SlotMetrics, stopCh <-chan struct{}, logger *logging.Logger) http.Handler {
	availabilityService := availability.NewService(stores, logger, availability.WithMetrics(slotMetrics))

	var redisClient *redis.Client
	var healthChecks map[string]router.HealthCheck
	if rt != nil {
		redisClient = rt.Redis
		healthChecks = bootstrap.HealthChecks(rt.Redis, rt.SQL)
	}

	routerCfg := &router.Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(availabilityService, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		HealthChecks:        healthChecks,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		RequestTimeout:      cfg.RequestTimeout,
		Stop:                stopCh,
	}
	if redisClient != nil {
		routerCfg.ClinicHandler = clinic.NewHandler(clinic.NewStore(redisClient), cfg.DefaultTimezone, logger)
	}
	return router.New(routerCfg)
}
