// Package auth contains simple hand-written test doubles for the backend ports.
// They are lightweight and suitable for handler tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend          = (*FakeBackend)(nil)
	_ ports.StyleTransferBackend = (*FakeBackend)(nil)
)

// ErrGenerationFailed is what StyleTransfer returns when FailGeneration is set.
var ErrGenerationFailed = errors.New("fake backend: generation failed")

// FakeBackend behaves like the backend API with an in-memory user table.
// Tokens are deterministic: "<TokenPrefix><username>".
type FakeBackend struct {
	LoginFunc         func(ctx context.Context, creds domainauth.Credentials) (ports.LoginResult, error)
	SignupFunc        func(ctx context.Context, creds domainauth.Credentials) error
	StyleTransferFunc func(ctx context.Context, content, style studio.Image) (studio.Image, error)

	TokenPrefix    string
	FailGeneration bool

	mu       sync.Mutex
	users    map[string]string
	logins   int
	signups  int
	stylized int
}

// NewFakeBackend creates a backend that already knows the given username/password pairs.
func NewFakeBackend(users map[string]string) *FakeBackend {
	b := &FakeBackend{TokenPrefix: "tok-", users: make(map[string]string, len(users))}
	for u, p := range users {
		b.users[u] = p
	}
	return b
}

func (b *FakeBackend) Login(ctx context.Context, creds domainauth.Credentials) (ports.LoginResult, error) {
	b.mu.Lock()
	b.logins++
	b.mu.Unlock()
	if b.LoginFunc != nil {
		return b.LoginFunc(ctx, creds)
	}

	b.mu.Lock()
	pw, ok := b.users[creds.Identifier]
	b.mu.Unlock()
	if !ok || pw != creds.Password {
		return ports.LoginResult{}, apperrors.Auth("Invalid credentials", "Login failed")
	}
	return ports.LoginResult{Token: b.TokenPrefix + creds.Identifier, Username: creds.Identifier}, nil
}

func (b *FakeBackend) Signup(ctx context.Context, creds domainauth.Credentials) error {
	b.mu.Lock()
	b.signups++
	b.mu.Unlock()
	if b.SignupFunc != nil {
		return b.SignupFunc(ctx, creds)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[creds.Identifier]; exists {
		return apperrors.Auth("Username already exists", "Signup failed")
	}
	b.users[creds.Identifier] = creds.Password
	return nil
}

// StyleTransfer returns the content image bytes tagged as PNG unless
// FailGeneration is set.
func (b *FakeBackend) StyleTransfer(ctx context.Context, content, style studio.Image) (studio.Image, error) {
	b.mu.Lock()
	b.stylized++
	b.mu.Unlock()
	if b.StyleTransferFunc != nil {
		return b.StyleTransferFunc(ctx, content, style)
	}
	if err := ctx.Err(); err != nil {
		return studio.Image{}, err
	}
	if b.FailGeneration {
		return studio.Image{}, fmt.Errorf("style transfer: %w", ErrGenerationFailed)
	}
	out := append([]byte(nil), content.Data...)
	return studio.Image{ContentType: "image/png", Data: out}, nil
}

// Calls reports how many times each operation was invoked.
func (b *FakeBackend) Calls() (logins, signups, stylized int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logins, b.signups, b.stylized
}
