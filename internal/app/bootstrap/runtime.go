package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-slots/internal/api/router"
	"github.com/wolfman30/clinic-slots/internal/availability"
	"github.com/wolfman30/clinic-slots/internal/bookings"
	"github.com/wolfman30/clinic-slots/internal/catalog"
	"github.com/wolfman30/clinic-slots/internal/clinic"
	appconfig "github.com/wolfman30/clinic-slots/internal/config"
	"github.com/wolfman30/clinic-slots/internal/pricing"
	"github.com/wolfman30/clinic-slots/internal/staff"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool opens and pings a pgx pool. An empty DATABASE_URL yields
// a nil pool and no error.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("postgres connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// Runtime holds the connections the API server owns.
type Runtime struct {
	Redis *redis.Client
	Pool  *pgxpool.Pool
	// SQL shares Pool's connections through database/sql for the rule store.
	SQL *sql.DB
}

// Connect dials Redis and Postgres. Both are required to serve bookings.
func Connect(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		return nil, errors.New("bootstrap: redis is required")
	}
	pool, err := BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	if pool == nil {
		_ = redisClient.Close()
		return nil, errors.New("bootstrap: DATABASE_URL is required")
	}
	return &Runtime{Redis: redisClient, Pool: pool, SQL: stdlib.OpenDBFromPool(pool)}, nil
}

// Close releases every connection.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.SQL != nil {
		_ = rt.SQL.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}

// Querier is the pgx surface shared by the pool-backed stores.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BuildStores wires the availability collaborators onto their backends:
// schedules in Redis, services, appointments and staff blocks through pgx,
// and pricing rules through database/sql.
func BuildStores(redisClient *redis.Client, db Querier, sqlDB *sql.DB) (availability.Stores, error) {
	if redisClient == nil || db == nil || sqlDB == nil {
		return availability.Stores{}, errors.New("bootstrap: redis, postgres and sql handles are required")
	}
	return availability.Stores{
		Schedules:    clinic.NewStore(redisClient),
		Services:     catalog.NewStore(db),
		Appointments: bookings.NewRepository(db),
		Blocks:       staff.NewStore(db),
		Rules:        pricing.NewStore(sqlDB),
	}, nil
}

// HealthChecks returns a ping per configured dependency.
func HealthChecks(redisClient *redis.Client, sqlDB *sql.DB) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if sqlDB != nil {
		checks["postgres"] = sqlDB.PingContext
	}
	return checks
}
