package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/prakritea/artisan-studio/config"
)

// Run connects infrastructure, serves the web app and blocks until SIGINT,
// SIGTERM or the failure of any component.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var redisClient redis.UniversalClient
	if cfg.Session.Store != config.StoreModeMemory {
		client, err := ConnectRedis(DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	} else {
		logger.WarnContext(ctx, "using in-memory stores; state is lost on restart and not shared between instances")
	}

	metrics := BuildMetrics(cfg.Observability.Metrics, logger)
	defer func() {
		if cerr := metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close statsd client failed", "error", cerr)
		}
	}()

	services, err := NewServices(&ServiceDeps{
		Config:      cfg,
		RedisClient: redisClient,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	handler, err := BuildHTTPHandler(&HTTPServerConfig{
		Config:      cfg,
		Services:    services,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	server := NewHTTPServer(cfg.HTTP.Addr, handler)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return RunHTTPServer(gctx, server, cfg.HTTP.ShutdownTimeout, logger)
	})
	if services.Reaper != nil {
		g.Go(func() error { return services.Reaper.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		if sigCtx.Err() != nil && ctx.Err() == nil {
			logger.Info("shutdown signal received")
		}
		return nil
	})

	return g.Wait()
}
