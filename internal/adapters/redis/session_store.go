// Package redis provides Redis-backed implementations of the ports used by
// the web front-end: sessions, session events, studio flows and images.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// DefaultSessionPrefix is the key prefix used when none is configured.
const DefaultSessionPrefix = "session:"

// SessionStore is a Redis-based session store.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	// Prefix is prepended to every session id. Empty selects DefaultSessionPrefix.
	Prefix string
	// TTL expires idle sessions. Zero keeps them until they are cleared.
	TTL time.Duration
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Save writes the whole session in one SET so token and username never diverge.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get loads a session, returning ports.ErrNotFound when it does not exist.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
