package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, store config.StoreMode) *config.AppConfig {
	t.Helper()
	t.Setenv("SESSION_STORE", string(store))
	cfg, err := parseConfig()
	require.NoError(t, err)
	return &cfg
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig()
		require.NoError(t, err)

		assert.Equal(t, config.StoreModeRedis, cfg.Session.Store)
		assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	})

	t.Run("sanitizes values", func(t *testing.T) {
		t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")
		t.Setenv("HTTP_COMPRESSION_LEVEL", "42")

		cfg, err := parseConfig()
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
		assert.Equal(t, 9, cfg.HTTP.CompressionLevel)
	})

	t.Run("rejects a relative backend url", func(t *testing.T) {
		t.Setenv("BACKEND_BASE_URL", "api.example.com")

		_, err := parseConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BACKEND_BASE_URL")
	})

	t.Run("rejects an unknown store", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "etcd")

		_, err := parseConfig()
		require.Error(t, err)
	})
}

func TestNewServices_MemoryStore(t *testing.T) {
	cfg := testConfig(t, config.StoreModeMemory)

	svcs, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	require.NotNil(t, svcs.Reaper, "in-process stores need sweeping")
	assert.Zero(t, svcs.Reaper.SweepOnce(context.Background()))

	ctx := context.Background()
	require.NoError(t, svcs.Sessions.Set(ctx, "session-1", "tok123", "artist1"))
	sess, ok, err := svcs.Sessions.Get(ctx, "session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "artist1", sess.Username)
}

func TestNewServices_RedisStore(t *testing.T) {
	cfg := testConfig(t, config.StoreModeRedis)
	mr, client := testutil.NewMiniRedis(t)

	svcs, err := NewServices(&ServiceDeps{Config: cfg, RedisClient: client, Logger: discardLogger()})
	require.NoError(t, err)
	assert.Nil(t, svcs.Reaper, "redis expires keys itself")

	require.NoError(t, svcs.Sessions.Set(context.Background(), "session-1", "tok123", "artist1"))
	assert.True(t, mr.Exists(cfg.Session.KeyPrefix+"session-1"))
}

func TestNewServices_Errors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := NewServices(&ServiceDeps{})
		require.Error(t, err)
	})

	t.Run("redis store without a client", func(t *testing.T) {
		cfg := testConfig(t, config.StoreModeRedis)

		_, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is required")
	})
}

func TestBuildHTTPHandler_HealthzChecksRedis(t *testing.T) {
	cfg := testConfig(t, config.StoreModeRedis)
	mr, client := testutil.NewMiniRedis(t)
	svcs, err := NewServices(&ServiceDeps{Config: cfg, RedisClient: client, Logger: discardLogger()})
	require.NoError(t, err)

	handler, err := BuildHTTPHandler(&HTTPServerConfig{
		Config:      cfg,
		Services:    svcs,
		RedisClient: client,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildHTTPHandler_ServesPages(t *testing.T) {
	cfg := testConfig(t, config.StoreModeMemory)
	cfg.HTTP.CompressionEnabled = true
	svcs, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	handler, err := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: svcs, Logger: discardLogger()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pricing", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestRunHTTPServer(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		server := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
		done := make(chan error, 1)

		go func() { done <- RunHTTPServer(ctx, server, time.Second, discardLogger()) }()
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("reports listen failures", func(t *testing.T) {
		server := NewHTTPServer("127.0.0.1:-1", http.NotFoundHandler())

		err := RunHTTPServer(context.Background(), server, time.Second, discardLogger())
		require.Error(t, err)
	})
}

func TestNewHTTPServer_NoWriteTimeout(t *testing.T) {
	server := NewHTTPServer("", http.NotFoundHandler())

	assert.Equal(t, ":8080", server.Addr)
	assert.Zero(t, server.WriteTimeout, "the session event stream must not be cut off")
	assert.NotZero(t, server.ReadHeaderTimeout)
}

func TestBuildMetrics_Disabled(t *testing.T) {
	client := BuildMetrics(config.ObservabilityMetricsConfig{Prefix: "artisan"}, discardLogger())

	require.NotNil(t, client)
	assert.False(t, client.Enabled())
	client.Count("auth.attempt", 1, nil)
	require.NoError(t, client.Close())
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"postgres://artisan:s3cret@db:5432/artisan": "postgres://*@db:5432/artisan",
		"redis://:pw@cache:6379/0":                  "redis://*@cache:6379/0",
		"localhost:6379":                            "localhost:6379",
		"cluster:user:pw@node1:6379":                "node1:6379",
	}
	for in, want := range tests {
		assert.Equal(t, want, redactURL(in), "input %q", in)
	}
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, logLevel(""))
	assert.Equal(t, slog.LevelInfo, logLevel("verbose"))
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")

	cfg, err := LoadConfig(t.TempDir() + "/absent.env")
	require.NoError(t, err)
	assert.Equal(t, config.StoreModeMemory, cfg.Session.Store)
}
