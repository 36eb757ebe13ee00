package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/bootstrap"
	"github.com/prakritea/artisan-studio/internal/devbackend"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	dev := cfg.DevBackend

	users, closeUsers, err := openUserStore(ctx, dev.Database, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	tokens, err := devbackend.NewTokenIssuer(dev.JWTSecret, dev.TokenTTL)
	if err != nil {
		return err
	}
	srv, err := devbackend.NewServer(devbackend.Options{
		Users:  users,
		Tokens: tokens,
		Alpha:  dev.BlendAlpha,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting artisan dev backend",
		"addr", dev.Addr,
		"postgres", dev.Database.URL != "",
		"blend_alpha", dev.BlendAlpha)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return bootstrap.RunHTTPServer(sigCtx, bootstrap.NewHTTPServer(dev.Addr, srv.Handler()), cfg.HTTP.ShutdownTimeout, logger)
}

// openUserStore returns the Postgres store when a database URL is set and the
// in-memory store otherwise.
func openUserStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (devbackend.UserStore, func(), error) {
	if cfg.URL == "" {
		logger.WarnContext(ctx, "DEVBACKEND_DATABASE_URL not set; accounts are kept in memory")
		return devbackend.NewMemoryUserStore(), func() {}, nil
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}

	if cfg.RunMigrationsOnStart {
		if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
			closeDB()
			return nil, nil, err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}
	return devbackend.NewPostgresUserStore(db), closeDB, nil
}
