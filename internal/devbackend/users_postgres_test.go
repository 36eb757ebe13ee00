package devbackend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakritea/artisan-studio/internal/testutil"
)

func TestUserStores(t *testing.T) {
	stores := map[string]func(t *testing.T) UserStore{
		"memory": func(*testing.T) UserStore { return NewMemoryUserStore() },
		"postgres": func(t *testing.T) UserStore {
			return NewPostgresUserStore(testutil.SetupTestDB(t))
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			user := User{ID: uuid.NewString(), Username: "artist1", PasswordHash: "hash", CreatedAt: created}

			require.NoError(t, store.Create(ctx, user))

			dup := user
			dup.ID = uuid.NewString()
			require.ErrorIs(t, store.Create(ctx, dup), ErrUserExists)

			got, err := store.GetByUsername(ctx, "artist1")
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, "hash", got.PasswordHash)
			assert.True(t, created.Equal(got.CreatedAt))
			assert.Nil(t, got.LastLoginAt)

			_, err = store.GetByUsername(ctx, "ghost")
			require.ErrorIs(t, err, ErrUserNotFound)

			login := created.Add(time.Hour)
			require.NoError(t, store.RecordLogin(ctx, user.ID, login))
			got, err = store.GetByUsername(ctx, "artist1")
			require.NoError(t, err)
			require.NotNil(t, got.LastLoginAt)
			assert.True(t, login.Equal(*got.LastLoginAt))

			require.ErrorIs(t, store.RecordLogin(ctx, uuid.NewString(), login), ErrUserNotFound)
		})
	}
}
