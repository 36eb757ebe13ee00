package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
)

// SSE event names and timings for the session stream.
const (
	SSEEventSession   = "session"
	sseRetryMillis    = 5000
	sseKeepAliveEvery = 25 * time.Second
)

// SessionEvents streams session changes for the visitor's session id as
// server-sent events. Pages use it to refresh the nav, and protected pages
// re-navigate so the guard can redirect them.
// GET /events/session.
func (h *UIHandlers) SessionEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := SessionIDFromContext(ctx)
	if sessionID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_session"})
		return
	}

	events, err := h.Sessions.Subscribe(ctx, sessionID)
	if err != nil {
		h.logger().ErrorContext(ctx, "session subscribe failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "events_unavailable"})
		return
	}

	rc := http.NewResponseController(w)
	// The server's write timeout would cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger().DebugContext(ctx, "clearing write deadline failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger().WarnContext(ctx, "streaming not supported", "error", err)
		return
	}

	keepAlive := time.NewTicker(sseKeepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				h.logger().DebugContext(ctx, "client disconnected during keep-alive", "error", err)
				return
			}
			_ = rc.Flush()

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeSessionEvent(w, ev); err != nil {
				h.logger().DebugContext(ctx, "client disconnected", "error", err)
				return
			}
			_ = rc.Flush()
		}
	}
}

// writeSessionEvent writes one SSE frame. The session id stays server side.
func writeSessionEvent(w io.Writer, ev domainauth.SessionEvent) error {
	payload, err := json.Marshal(struct {
		Kind     domainauth.EventKind `json:"kind"`
		Username string               `json:"username,omitempty"`
		At       time.Time            `json:"at"`
	}{Kind: ev.Kind, Username: ev.Username, At: ev.At})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", SSEEventSession, payload)
	return err
}
