package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Credentials are what a visitor types into the login or signup form.
// They live for one request and are never persisted or logged.
type Credentials struct {
	Identifier      string
	Password        string
	ConfirmPassword string // signup only
}

// Normalized returns a copy with the identifier trimmed. Passwords are kept verbatim.
func (c Credentials) Normalized() Credentials {
	c.Identifier = strings.TrimSpace(c.Identifier)
	return c
}

// Session is the server-side record behind the session_id cookie.
// ID is an opaque identifier; Token is the backend-issued access token and is
// never inspected here.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAuthenticated reports whether the session carries a token. Token presence
// is the only authentication signal; nothing else duplicates it.
func (s Session) IsAuthenticated() bool { return s.Token != "" }

// EventKind names a session state change.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// SessionEvent is published whenever a session is set or cleared so every
// consumer (nav indicator, guarded pages, other tabs) can refresh.
type SessionEvent struct {
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Username  string    `json:"username,omitempty"`
	At        time.Time `json:"at"`
}
