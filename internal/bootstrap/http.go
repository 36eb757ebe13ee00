package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/config"
	httpx "github.com/prakritea/artisan-studio/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	RedisClient redis.UniversalClient // Optional: adds a redis check to /healthz
	Logger      *slog.Logger
}

// BuildHTTPHandler builds the router with its middleware chain.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	services := httpx.RouterServices{
		Auth:          cfg.Services.Auth,
		Sessions:      cfg.Services.Sessions,
		Studio:        cfg.Services.Studio,
		Theme:         appCfg.Theme,
		CookieDomain:  appCfg.HTTP.CookieDomain,
		SessionMaxAge: appCfg.Session.TTL,
		HealthChecks:  healthChecks(cfg.RedisClient),
		IsDev:         appCfg.IsDev,
		Logger:        logger,
	}
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		services.Compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel}
	}

	handler, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return handler, nil
}

func healthChecks(client redis.UniversalClient) map[string]httpx.HealthCheck {
	if client == nil {
		return nil
	}
	return map[string]httpx.HealthCheck{
		"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}

// NewHTTPServer returns a server for handler. There is no WriteTimeout: the
// session event stream stays open for as long as the tab does.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// RunHTTPServer serves until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func RunHTTPServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
