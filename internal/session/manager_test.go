package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/shopfront/internal/session"
)

func TestManagerGetByToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns stored session", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)
		sess.Set("k", "v")
		require.NoError(t, store.Save(ctx, &sess))

		got, err := mgr.GetByToken(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		_, err := mgr.GetByToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired session", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)
		sess.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, store.Save(ctx, &sess))

		_, err = mgr.GetByToken(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrExpired)
	})
}

func TestManagerStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unmodified session produces no write", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)

		require.NoError(t, mgr.Store(ctx, &sess))
		assert.Equal(t, 0, store.Len())
	})

	t.Run("modified session is saved", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)
		require.NoError(t, sess.Authenticate(bson.NewObjectID()))

		require.NoError(t, mgr.Store(ctx, &sess))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("deleted session is removed", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)
		require.NoError(t, sess.Authenticate(bson.NewObjectID()))
		require.NoError(t, mgr.Store(ctx, &sess))
		require.Equal(t, 1, store.Len())

		sess.Logout()
		require.NoError(t, mgr.Store(ctx, &sess))
		assert.Equal(t, 0, store.Len())
	})

	t.Run("deleting a never-persisted session is not an error", func(t *testing.T) {
		store := session.NewMemoryStore()
		mgr := session.NewManager(store, time.Hour, 5*time.Minute)

		sess, err := mgr.New()
		require.NoError(t, err)
		sess.Logout()

		assert.NoError(t, mgr.Store(ctx, &sess))
	})
}

func TestManagerCleanupExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, time.Hour, 5*time.Minute)

	live, err := mgr.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &live))

	dead, err := mgr.New()
	require.NoError(t, err)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, &dead))

	deleted, err := mgr.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 1, store.Len())
}
