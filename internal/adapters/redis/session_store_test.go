package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/ports"
	"github.com/prakritea/artisan-studio/internal/testutil"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{})
	ctx := context.Background()

	sess := domainauth.Session{
		ID:        "sess-1",
		Token:     "tok123",
		Username:  "alice",
		CreatedAt: testutil.TestTime(),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.Username, got.Username)
	assert.True(t, got.CreatedAt.Equal(sess.CreatedAt))
	assert.True(t, got.IsAuthenticated())
}

func TestSessionStore_NoTTLByDefault(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{Prefix: "s:"})

	require.NoError(t, store.Save(context.Background(), domainauth.Session{ID: "a", Token: "t"}))
	assert.True(t, mr.Exists("s:a"))
	assert.Equal(t, time.Duration(0), mr.TTL("s:a"))
}

func TestSessionStore_TTLExpires(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "a", Token: "t"}))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{})

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "gone", Token: "t", Username: "bob"}))
	require.NoError(t, store.Delete(ctx, "gone"))

	_, err := store.Get(ctx, "gone")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "gone"), "deleting twice is fine")
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_SaveRejectsEmptyID(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{})

	assert.Error(t, store.Save(context.Background(), domainauth.Session{Token: "t"}))
}

func TestSessionStore_CorruptPayload(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, SessionStoreOptions{})
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}
