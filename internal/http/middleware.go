package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
// Query strings are left out; they never carry anything worth keeping.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the wrapper.
func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionReader looks a session up by id. A missing or tokenless session is
// reported as absent, not as an error.
type SessionReader interface {
	Get(ctx context.Context, sessionID string) (domainauth.Session, bool, error)
}

// SessionGuard configures OptionalSession and RequireSession.
type SessionGuard struct {
	Sessions SessionReader // Required
	Cookies  CookieConfig
	Logger   *slog.Logger
	// NewID mints session ids; defaults to service.NewSessionID.
	NewID func() string
}

func (g SessionGuard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g SessionGuard) newID() string {
	if g.NewID != nil {
		return g.NewID()
	}
	return service.NewSessionID()
}

// lookup returns the authenticated session named by the cookie, or nil.
// Store failures are logged and treated as signed out.
func (g SessionGuard) lookup(r *http.Request) *domainauth.Session {
	id := sessionIDFromCookie(r)
	if id == "" {
		return nil
	}
	sess, ok, err := g.Sessions.Get(r.Context(), id)
	if err != nil {
		g.logger().WarnContext(r.Context(), "session lookup failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &sess
}

// OptionalSession puts the visitor's session, if any, into the request
// context. A visitor without a session_id cookie is issued one, so the
// session event stream has an id to follow before sign-in.
func OptionalSession(g SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromCookie(r)
			if id == "" {
				id = g.newID()
				setSessionCookie(w, r, g.Cookies, id)
			}
			ctx := setSessionIDInContext(r.Context(), id)
			if sess := g.lookup(r); sess != nil {
				ctx = SetSessionInContext(ctx, sess)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession serves the wrapped handler only when the session carries a
// token. The token is trusted as stored; nothing is sent to the backend.
//
// Denied requests are redirected to /login without a return-to parameter:
// browsers get 303, htmx gets HX-Redirect, and API clients get a 401 JSON body.
func RequireSession(g SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil {
				sess = g.lookup(r)
			}
			if sess == nil {
				denySession(w, r)
				return
			}

			w.Header().Set("Cache-Control", "no-store")
			ctx := SetSessionInContext(r.Context(), sess)
			ctx = setSessionIDInContext(ctx, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denySession(w http.ResponseWriter, r *http.Request) {
	switch {
	case IsHTMX(r):
		HTMX(w).Redirect("/login")
	case IsBrowserRequest(r):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Downstream handlers use it to choose between HTML and JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - /api/ and /static/ are never pages
// 2. HTMX requests are browser requests
// 3. Accept header - browsers accept text/html; a missing header is treated as a browser.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// Chain applies middlewares so the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
