package postgres

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationTableName = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf does not exit; the error is returned from RunMigrations instead.
func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// RunMigrations applies the embedded schema migrations through a
// database/sql handle borrowed from the pool.
func RunMigrations(pool *pgxpool.Pool, logger *slog.Logger) error {
	migrationLogger := logger.With("component", "migrations")

	goose.SetLogger(&gooseLogger{logger: migrationLogger})
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	migrationLogger.Info("Applying pending migrations")
	if err := goose.Up(db, "migrations"); err != nil {
		migrationLogger.Error("Migration failed", "error", err)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		migrationLogger.Warn("Failed to retrieve current migration version", "error", err)
		return nil
	}
	migrationLogger.Info("Database schema is up to date", "version", version)
	return nil
}
