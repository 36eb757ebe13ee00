package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/ports"
)

func TestFakeBackend_Login(t *testing.T) {
	b := NewFakeBackend(map[string]string{"artist1": "secret"})
	ctx := context.Background()

	res, err := b.Login(ctx, domainauth.Credentials{Identifier: "artist1", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-artist1", res.Token)
	assert.Equal(t, "artist1", res.Username)

	_, err = b.Login(ctx, domainauth.Credentials{Identifier: "artist1", Password: "nope"})
	assert.True(t, apperrors.IsAuth(err))
	assert.Equal(t, "Invalid credentials", apperrors.UserMessage(err))

	logins, _, _ := b.Calls()
	assert.Equal(t, 2, logins)
}

func TestFakeBackend_Signup(t *testing.T) {
	b := NewFakeBackend(nil)
	ctx := context.Background()

	require.NoError(t, b.Signup(ctx, domainauth.Credentials{Identifier: "new", Password: "pw"}))
	err := b.Signup(ctx, domainauth.Credentials{Identifier: "new", Password: "pw"})
	assert.Equal(t, "Username already exists", apperrors.UserMessage(err))

	_, err = b.Login(ctx, domainauth.Credentials{Identifier: "new", Password: "pw"})
	assert.NoError(t, err)
}

func TestFakeBackend_Overrides(t *testing.T) {
	b := NewFakeBackend(nil)
	b.LoginFunc = func(context.Context, domainauth.Credentials) (ports.LoginResult, error) {
		return ports.LoginResult{Token: "tok123", Username: "artist1"}, nil
	}

	res, err := b.Login(context.Background(), domainauth.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "tok123", res.Token)
}

func TestFakeBackend_StyleTransfer(t *testing.T) {
	b := NewFakeBackend(nil)
	content := studio.Image{ContentType: "image/jpeg", Data: []byte("content")}

	out, err := b.StyleTransfer(context.Background(), content, studio.Image{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, []byte("content"), out.Data)

	b.FailGeneration = true
	_, err = b.StyleTransfer(context.Background(), content, studio.Image{})
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.FailGeneration = false
	_, err = b.StyleTransfer(ctx, content, studio.Image{})
	assert.ErrorIs(t, err, context.Canceled)
}
