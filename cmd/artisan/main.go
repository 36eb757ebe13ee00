package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/bootstrap"
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

	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, &cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting artisan studio",
		"addr", cfg.HTTP.Addr,
		"backend", cfg.Backend.BaseURL,
		"session_store", cfg.Session.Store,
		"dev", cfg.IsDev)
}
