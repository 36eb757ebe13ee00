package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
)

// sseFrame is one parsed server-sent event.
type sseFrame struct {
	event string
	data  string
	retry string
}

// readFrame reads lines up to the next blank line. Comment lines are skipped.
func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if f != (sseFrame{}) {
				return f
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		case strings.HasPrefix(line, "retry: "):
			f.retry = strings.TrimPrefix(line, "retry: ")
		}
	}
}

func openSessionStream(t *testing.T, srv *httptest.Server, sessionID string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events/session", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", res.Header.Get("Cache-Control"))
	return bufio.NewReader(res.Body)
}

func TestSessionEvents_StreamsSignOut(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "session-1")
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	stream := openSessionStream(t, srv, "session-1")

	first := readFrame(t, stream)
	assert.Equal(t, "5000", first.retry)

	require.Eventually(t, func() bool { return app.events.Subscribers("session-1") == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, app.sessions.Clear(context.Background(), "session-1"))

	frame := readFrame(t, stream)
	assert.Equal(t, SSEEventSession, frame.event)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(frame.data), &payload))
	assert.Equal(t, string(domainauth.EventSignedOut), payload["kind"])
	assert.NotContains(t, frame.data, "session-1", "the session id must not leave the server")
}

func TestSessionEvents_StreamsSignInForGuestSession(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	stream := openSessionStream(t, srv, "guest-1")
	readFrame(t, stream)
	require.Eventually(t, func() bool { return app.events.Subscribers("guest-1") == 1 },
		2*time.Second, 10*time.Millisecond)

	app.signIn(t, "guest-1")

	frame := readFrame(t, stream)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(frame.data), &payload))
	assert.Equal(t, string(domainauth.EventSignedIn), payload["kind"])
	assert.Equal(t, "artist1", payload["username"])
}

func TestSessionEvents_UnsubscribesOnDisconnect(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events/session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tab-1"})
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Eventually(t, func() bool { return app.events.Subscribers("tab-1") == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool { return app.events.Subscribers("tab-1") == 0 },
		2*time.Second, 10*time.Millisecond)
}

// stubSessions fails every subscription.
type stubSessions struct {
	subscribeErr error
}

func (s stubSessions) Get(context.Context, string) (domainauth.Session, bool, error) {
	return domainauth.Session{}, false, nil
}

func (s stubSessions) Clear(context.Context, string) error { return nil }

func (s stubSessions) Subscribe(context.Context, string) (<-chan domainauth.SessionEvent, error) {
	return nil, s.subscribeErr
}

func TestSessionEvents_Errors(t *testing.T) {
	t.Run("missing session id", func(t *testing.T) {
		h := &UIHandlers{Sessions: stubSessions{}, Logger: discardLogger()}
		rec := httptest.NewRecorder()

		h.SessionEvents(rec, httptest.NewRequest(http.MethodGet, "/events/session", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subscribe fails", func(t *testing.T) {
		h := &UIHandlers{Sessions: stubSessions{subscribeErr: errors.New("redis down")}, Logger: discardLogger()}
		req := httptest.NewRequest(http.MethodGet, "/events/session", nil)
		req = req.WithContext(setSessionIDInContext(req.Context(), "session-1"))
		rec := httptest.NewRecorder()

		h.SessionEvents(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "redis down")
	})
}

func TestWriteSessionEvent(t *testing.T) {
	var sb strings.Builder
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := writeSessionEvent(&sb, domainauth.SessionEvent{
		SessionID: "secret-id",
		Kind:      domainauth.EventSignedIn,
		Username:  "artist1",
		At:        at,
	})

	require.NoError(t, err)
	assert.Equal(t,
		"event: session\ndata: {\"kind\":\"signed_in\",\"username\":\"artist1\",\"at\":\"2024-05-01T12:00:00Z\"}\n\n",
		sb.String())
}
