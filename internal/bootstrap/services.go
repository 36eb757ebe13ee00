package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/adapters/backendapi"
	"github.com/prakritea/artisan-studio/internal/adapters/memory"
	"github.com/prakritea/artisan-studio/internal/adapters/reaper"
	redisstore "github.com/prakritea/artisan-studio/internal/adapters/redis"
	"github.com/prakritea/artisan-studio/internal/observability/statsd"
	"github.com/prakritea/artisan-studio/internal/ports"
	"github.com/prakritea/artisan-studio/internal/service"
)

const (
	// sweepInterval is how often in-process stores drop expired entries.
	sweepInterval = time.Minute
	// generationLeaseMargin is added to the style-transfer timeout so a
	// generation that is still running is never expired early.
	generationLeaseMargin = 30 * time.Second
)

// ServiceDeps contains the infrastructure the services are built on.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient is required when Session.Store is "redis".
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	// HTTPClient overrides the backend client's transport (tests).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ServiceContainer holds the constructed services.
type ServiceContainer struct {
	Sessions *service.SessionService
	Auth     *service.AuthService
	Studio   *service.StudioService
	Backend  *backendapi.Client

	// Reaper prunes in-process stores. It is nil in redis mode, where keys expire on their own.
	Reaper *reaper.Runner
}

// storeBundle groups the persistence adapters selected by Session.Store.
type storeBundle struct {
	sessions ports.SessionStore
	events   ports.SessionEvents
	flows    ports.FlowStore
	images   ports.ImageStore
	sweepers map[string]reaper.Sweeper
}

// BuildMetrics returns a StatsD client. A sink that cannot be dialled is
// logged and replaced by a disabled client so metrics never block startup.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}
	return client
}

// buildStores builds the adapters for the configured store mode; no business rules here.
func buildStores(cfg *config.AppConfig, client redis.UniversalClient, logger *slog.Logger) (storeBundle, error) {
	switch cfg.Session.Store {
	case config.StoreModeMemory:
		sessions := memory.NewSessionStore(cfg.Session.TTL)
		images := memory.NewImageStore(cfg.Studio.ImageTTL)
		flows := memory.NewFlowStore(cfg.Studio.ImageTTL)
		return storeBundle{
			sessions: sessions,
			events:   memory.NewSessionEvents(),
			flows:    flows,
			images:   images,
			sweepers: map[string]reaper.Sweeper{"sessions": sessions, "flows": flows, "images": images},
		}, nil
	case config.StoreModeRedis, "":
		if client == nil {
			return storeBundle{}, errors.New("redis client is required for the redis store")
		}
		return storeBundle{
			sessions: redisstore.NewSessionStore(client, redisstore.SessionStoreOptions{
				Prefix: cfg.Session.KeyPrefix,
				TTL:    cfg.Session.TTL,
			}),
			events: redisstore.NewSessionEvents(client, logger),
			flows: redisstore.NewFlowStore(client, redisstore.FlowStoreOptions{
				Prefix: redisstore.DefaultFlowPrefix,
				TTL:    cfg.Studio.ImageTTL,
			}),
			images: redisstore.NewImageStore(client, redisstore.DefaultImagePrefix, cfg.Studio.ImageTTL),
		}, nil
	default:
		return storeBundle{}, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}

// NewServices wires stores, the backend client and the domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	stores, err := buildStores(cfg, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	backend, err := backendapi.NewClient(backendapi.Options{
		Config:     cfg.Backend,
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
		Metrics:    deps.Metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create backend client: %w", err)
	}

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store:  stores.sessions,
		Events: stores.events,
		Logger: logger,
	})
	container := ServiceContainer{
		Sessions: sessions,
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Backend:  backend,
			Sessions: sessions,
			Metrics:  deps.Metrics,
		}),
		Studio: service.NewStudioService(service.StudioServiceOptions{
			Backend: backend,
			Stores:  service.StudioStores{Flows: stores.flows, Images: stores.images},
			Config: service.StudioConfig{
				MaxUploadBytes:  cfg.Studio.MaxUploadBytes,
				GenerationLease: cfg.Backend.StyleTransferTimeout + generationLeaseMargin,
				Logger:          logger,
				Metrics:         deps.Metrics,
			},
		}),
		Backend: backend,
	}

	if len(stores.sweepers) > 0 {
		container.Reaper, err = reaper.NewRunner(reaper.RunnerOptions{
			Sweepers: stores.sweepers,
			Interval: sweepInterval,
			Logger:   logger,
			Metrics:  deps.Metrics,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("create reaper: %w", err)
		}
	}

	logger.Info("services initialised", "store", cfg.Session.Store, "backend", cfg.Backend.BaseURL)
	return container, nil
}
