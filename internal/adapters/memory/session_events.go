package memory

import (
	"context"
	"sync"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// SessionEvents is an in-process broker. Slow subscribers miss events rather
// than block publishers.
type SessionEvents struct {
	mu   sync.Mutex
	subs map[string]map[chan domainauth.SessionEvent]struct{}
}

var _ ports.SessionEvents = (*SessionEvents)(nil)

// NewSessionEvents creates an empty broker.
func NewSessionEvents() *SessionEvents {
	return &SessionEvents{subs: make(map[string]map[chan domainauth.SessionEvent]struct{})}
}

func (b *SessionEvents) Publish(_ context.Context, ev domainauth.SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *SessionEvents) Subscribe(ctx context.Context, sessionID string) (<-chan domainauth.SessionEvent, error) {
	ch := make(chan domainauth.SessionEvent, 4)

	b.mu.Lock()
	set, ok := b.subs[sessionID]
	if !ok {
		set = make(map[chan domainauth.SessionEvent]struct{})
		b.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, sessionID)
		}
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// Subscribers reports how many listeners a session has.
func (b *SessionEvents) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
