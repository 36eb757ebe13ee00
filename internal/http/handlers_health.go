package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const (
	healthResponse     = `{"status":"ok"}`
	healthCheckTimeout = 2 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// newHealthHandler runs every check with a short timeout. With no checks it
// behaves like healthHandler. Any failure answers 503 naming the failing
// dependencies; causes go to the log only.
func newHealthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	if len(checks) == 0 {
		return healthHandler
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				healthy = false
				status[name] = "unavailable"
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				continue
			}
			status[name] = "ok"
		}

		if healthy {
			healthHandler(w, r)
			return
		}
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "unavailable",
			"dependencies": status,
		})
	}
}
