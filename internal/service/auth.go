package service

import (
	"context"
	"log/slog"
	"time"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/observability/metrics"
	"github.com/prakritea/artisan-studio/internal/observability/statsd"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// Form field names used for validation errors.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// Validation messages.
const (
	MsgUsernameRequired    = "Please enter your username"
	MsgPasswordRequired    = "Please enter your password"
	MsgPasswordsDoNotMatch = "Passwords do not match"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend  ports.AuthBackend // Required
	Sessions *SessionService   // Required
	Metrics  statsd.Sink       // Optional
}

// AuthService validates credentials locally, exchanges them with the
// backend, and records the outcome in the session.
type AuthService struct {
	backend  ports.AuthBackend
	sessions *SessionService
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Backend == nil {
		panic("AuthBackend is required")
	}
	if opts.Sessions == nil {
		panic("SessionService is required")
	}
	return &AuthService{
		backend:  opts.Backend,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		logger:   slog.Default().With("component", "auth_service"),
	}
}

// Login checks preconditions, calls the backend once and stores the returned
// token and username under sessionID. No request is made when validation fails.
func (s *AuthService) Login(ctx context.Context, sessionID string, creds domainauth.Credentials) (domainauth.Session, error) {
	creds = creds.Normalized()
	if err := validateCredentials(creds); err != nil {
		return domainauth.Session{}, err
	}

	start := time.Now()
	res, err := s.backend.Login(ctx, creds)
	s.emit(metrics.OpLogin, start, err)
	if err != nil {
		return domainauth.Session{}, s.classify(ctx, metrics.OpLogin, err)
	}

	sess, err := s.sessions.Set(ctx, sessionID, res.Token, res.Username)
	if err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, apperrors.MsgSomethingWentWrong)
	}
	return sess, nil
}

// Signup checks preconditions, including password confirmation, and
// registers the account. It does not sign the visitor in.
func (s *AuthService) Signup(ctx context.Context, creds domainauth.Credentials) error {
	creds = creds.Normalized()
	if err := validateCredentials(creds); err != nil {
		return err
	}
	if creds.Password != creds.ConfirmPassword {
		return apperrors.ValidationField(FieldConfirmPassword, MsgPasswordsDoNotMatch)
	}

	start := time.Now()
	err := s.backend.Signup(ctx, creds)
	s.emit(metrics.OpSignup, start, err)
	if err != nil {
		return s.classify(ctx, metrics.OpSignup, err)
	}
	return nil
}

// Logout discards the local session. The backend is not told.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.Clear(ctx, sessionID)
	s.emit(metrics.OpLogout, time.Time{}, err)
	return err
}

func validateCredentials(creds domainauth.Credentials) error {
	if creds.Identifier == "" {
		return apperrors.ValidationField(FieldUsername, MsgUsernameRequired)
	}
	if creds.Password == "" {
		return apperrors.ValidationField(FieldPassword, MsgPasswordRequired)
	}
	return nil
}

// classify keeps auth and network errors as they are and turns anything
// unexpected into a network error so its text never reaches the page.
func (s *AuthService) classify(ctx context.Context, op string, err error) error {
	switch {
	case apperrors.IsAuth(err):
		return err
	case apperrors.IsNetwork(err):
		s.logger.WarnContext(ctx, "backend unreachable", "operation", op, "error", err)
		return err
	default:
		s.logger.ErrorContext(ctx, "backend call failed", "operation", op, "error", err)
		return apperrors.Network(err)
	}
}

func (s *AuthService) emit(op string, start time.Time, err error) {
	var d time.Duration
	if !start.IsZero() {
		d = time.Since(start)
	}
	metrics.EmitAuthAttempt(s.metrics, metrics.AuthMetric{Operation: op, Duration: d, Err: err})
}
