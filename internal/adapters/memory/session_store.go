// Package memory provides process-local implementations of the storage and
// event ports for development and single-replica deployments.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
)

type sessionEntry struct {
	sess      domainauth.Session
	expiresAt time.Time
}

// SessionStore keeps sessions in a map. Expired entries are dropped lazily.
type SessionStore struct {
	mu    sync.RWMutex
	items map[string]sessionEntry
	ttl   time.Duration
	now   func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a memory session store. A zero ttl never expires.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{items: make(map[string]sessionEntry), ttl: ttl, now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	e := sessionEntry{sess: sess}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.items[sess.ID] = e
	s.mu.Unlock()
	return nil
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	now := s.now()
	s.mu.RLock()
	e, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, ports.ErrNotFound
	}
	if e.expired(now) {
		s.dropExpired(id, now)
		return domainauth.Session{}, ports.ErrNotFound
	}
	return e.sess, nil
}

// dropExpired deletes id only if the entry is still expired under the write
// lock; a Save since the read keeps its fresh entry.
func (s *SessionStore) dropExpired(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok && e.expired(now) {
		delete(s.items, id)
	}
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.items {
		if e.expired(now) {
			delete(s.items, id)
			n++
		}
	}
	return n
}
