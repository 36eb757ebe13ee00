package devbackend

import (
	"context"
	"sync"
	"time"
)

// MemoryUserStore keeps users in process. Accounts are lost on restart.
type MemoryUserStore struct {
	mu         sync.RWMutex
	byUsername map[string]User
}

var _ UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore returns an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byUsername: make(map[string]User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[u.Username]; ok {
		return ErrUserExists
	}
	s.byUsername[u.Username] = u
	return nil
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byUsername[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) RecordLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.byUsername {
		if u.ID == id {
			u.LastLoginAt = &at
			s.byUsername[name] = u
			return nil
		}
	}
	return ErrUserNotFound
}
