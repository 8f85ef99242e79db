package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"osworks-api/internal/config"
	"osworks-api/internal/infrastructure/monitoring"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns          int32 = 10
	defaultMaxConnIdleTime         = 5 * time.Minute
	defaultHealthCheckPeriod       = time.Minute
	defaultConnectTimeout          = 5 * time.Second
	defaultPingAttempts            = 3
	pingBackoff                    = 500 * time.Millisecond
	applicationName                = "osworks-api"
)

var errEmptyDatabaseURL = errors.New("database URL is empty in configuration")

// NewConnectionPool opens the pool backing the clientes repository and
// returns only after PostgreSQL answers a ping.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errEmptyDatabaseURL
	}

	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}

	logger = logger.With(
		"component", "PostgresPool",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"db", poolConfig.ConnConfig.Database,
	)
	logger.Info("Opening PostgreSQL pool", "max_conns", poolConfig.MaxConns, "min_conns", poolConfig.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	attempts := cfg.PingAttempts
	if attempts <= 0 {
		attempts = defaultPingAttempts
	}
	if err := verifyConnection(ctx, pool, attempts, pingBackoff, poolConfig.ConnConfig.ConnectTimeout, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("PostgreSQL pool ready")
	return pool, nil
}

// configurePool parses the URL and applies pool tuning. Zero values in cfg
// fall back to package defaults.
func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = orDefault(cfg.MaxConns, defaultMaxConns)
	if cfg.MinConns > 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultMaxConnIdleTime)
	poolConfig.HealthCheckPeriod = orDefault(cfg.HealthCheckPeriod, defaultHealthCheckPeriod)
	poolConfig.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, defaultConnectTimeout)

	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return poolConfig, nil
}

func orDefault[T int32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

type pinger interface {
	Ping(ctx context.Context) error
}

// verifyConnection pings up to attempts times, waiting backoff between tries.
// Every ping is recorded as the "ping" query.
func verifyConnection(ctx context.Context, db pinger, attempts int, backoff, timeout time.Duration, logger *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = db.Ping(pingCtx)
		cancel()
		monitoring.RecordDBQuery("ping", lastErr, time.Since(start))

		if lastErr == nil {
			return nil
		}
		logger.Warn("Database ping failed", "attempt", attempt, "max_attempts", attempts, "error", lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database ping cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, lastErr)
}
