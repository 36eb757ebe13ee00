package httpx

import (
	"context"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// sessionIDKey carries the session_id cookie value, which is present for
// anonymous visitors too.
type sessionIDKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the authenticated session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil && session.IsAuthenticated() {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the authenticated session from the request context.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// setSessionIDInContext records the visitor's session id.
func setSessionIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session id set by OptionalSession or RequireSession.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	if s := GetSessionFromContext(ctx); s != nil {
		return s.ID
	}
	return ""
}

// IsGuestUser reports whether the current request context is unauthenticated.
func IsGuestUser(ctx context.Context) bool {
	_, ok := GetUserSessionFromContext(ctx)
	return !ok
}
