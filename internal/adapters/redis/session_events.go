package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// SessionEventChannelPrefix prefixes the pub/sub channel of every session.
const SessionEventChannelPrefix = "session-events:"

// SessionEvents publishes session changes over Redis pub/sub so every
// front-end replica can notify its connected browsers.
type SessionEvents struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ ports.SessionEvents = (*SessionEvents)(nil)

// NewSessionEvents creates a pub/sub backed event bus.
func NewSessionEvents(client redis.UniversalClient, logger *slog.Logger) *SessionEvents {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionEvents{client: client, logger: logger.With("component", "session_events")}
}

// Channel returns the pub/sub channel for a session.
func Channel(sessionID string) string { return SessionEventChannelPrefix + sessionID }

// Publish sends ev to subscribers of ev.SessionID.
func (e *SessionEvents) Publish(ctx context.Context, ev domainauth.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := e.client.Publish(ctx, Channel(ev.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// Subscribe listens for events on one session. The subscription is confirmed
// before Subscribe returns, so events published afterwards are delivered.
func (e *SessionEvents) Subscribe(ctx context.Context, sessionID string) (<-chan domainauth.SessionEvent, error) {
	sub := e.client.Subscribe(ctx, Channel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan domainauth.SessionEvent, 4)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				e.logger.Debug("close subscription failed", "error", err)
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domainauth.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					e.logger.Warn("dropping malformed session event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
