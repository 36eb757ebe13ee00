package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/migrate"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// The user table sees a handful of queries per sign-in; a small pool is plenty.
const (
	dbMaxOpenConns    = 10
	dbMaxIdleConns    = 2
	dbConnMaxLifetime = 5 * time.Minute
	dbPingTimeout     = 5 * time.Second
)

// ConnectDB opens the dev backend's PostgreSQL user database and pings it.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	dsn := strings.TrimSpace(cfg.DBConfig.URL)
	if dsn == "" {
		return nil, errors.New("database url is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database %s: %w", redactURL(dsn), pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected", "url", redactURL(dsn))
	}
	return db, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}

// redactURL strips credentials from a connection string for logging.
func redactURL(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if i := strings.LastIndex(raw, "@"); i > -1 {
		return raw[i+1:]
	}
	return raw
}
