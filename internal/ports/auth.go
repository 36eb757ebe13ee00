package ports

// Package ports defines interfaces (hexagonal ports) between services and adapters.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
)

// ErrNotFound is returned by stores when a key does not exist.
var ErrNotFound = errors.New("not found")

// SessionStore persists sessions. Save writes token and username together.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionEvents fans session changes out to every subscriber of a session id,
// including subscribers served by other processes.
type SessionEvents interface {
	Publish(ctx context.Context, ev domainauth.SessionEvent) error
	// Subscribe returns a channel that is closed once ctx is done.
	Subscribe(ctx context.Context, sessionID string) (<-chan domainauth.SessionEvent, error)
}

// LoginResult is what the backend returns for accepted credentials.
type LoginResult struct {
	Token    string
	Username string
}

// AuthBackend exchanges credentials with the backend API. Each call is a
// single request with no retry.
type AuthBackend interface {
	Login(ctx context.Context, creds domainauth.Credentials) (LoginResult, error)
	Signup(ctx context.Context, creds domainauth.Credentials) error
}
