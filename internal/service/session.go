package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store  ports.SessionStore  // Required
	Events ports.SessionEvents // Optional: without it Subscribe only waits for ctx
	Logger *slog.Logger
}

// SessionService is the single owner of session state. Every reader (route
// guard, nav, studio) and writer (login, logout) goes through it, and every
// write is announced to subscribers.
type SessionService struct {
	store  ports.SessionStore
	events ports.SessionEvents
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		store:  opts.Store,
		events: opts.Events,
		logger: logger.With("component", "session_service"),
		now:    time.Now,
	}
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Set stores token and username together and announces the sign-in.
func (s *SessionService) Set(ctx context.Context, sessionID, token, username string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, errors.New("session ID is required")
	}
	if token == "" {
		return domainauth.Session{}, errors.New("token is required")
	}

	sess := domainauth.Session{
		ID:        sessionID,
		Token:     token,
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.publish(ctx, domainauth.SessionEvent{
		SessionID: sessionID,
		Kind:      domainauth.EventSignedIn,
		Username:  username,
		At:        sess.CreatedAt,
	})
	return sess, nil
}

// Get returns the session and whether it is authenticated. A session that was
// never set, was cleared, or carries no token is reported as absent.
func (s *SessionService) Get(ctx context.Context, sessionID string) (domainauth.Session, bool, error) {
	if sessionID == "" {
		return domainauth.Session{}, false, nil
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domainauth.Session{}, false, nil
		}
		return domainauth.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	if !sess.IsAuthenticated() {
		return domainauth.Session{}, false, nil
	}
	return sess, true, nil
}

// Clear removes the session and announces the sign-out. Clearing an absent
// session succeeds.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.publish(ctx, domainauth.SessionEvent{
		SessionID: sessionID,
		Kind:      domainauth.EventSignedOut,
		At:        s.now().UTC(),
	})
	return nil
}

// Subscribe streams changes to one session until ctx is done.
func (s *SessionService) Subscribe(ctx context.Context, sessionID string) (<-chan domainauth.SessionEvent, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}
	if s.events == nil {
		ch := make(chan domainauth.SessionEvent)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch, nil
	}
	ch, err := s.events.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}
	return ch, nil
}

// publish is best effort: the write already happened, and every page render
// re-reads the store anyway.
func (s *SessionService) publish(ctx context.Context, ev domainauth.SessionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.WarnContext(ctx, "publish session event failed", "kind", ev.Kind, "error", err)
	}
}
