// Package devbackend is a local stand-in for the artisan backend API. It
// implements signup, login and a blend-based style transfer so the web app
// can be exercised without the real model server.
package devbackend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("username already exists")
	// ErrUserNotFound is returned when no user has the username.
	ErrUserNotFound = errors.New("user not found")
)

// User is an account created by signup.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
}
