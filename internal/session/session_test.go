package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/shopfront/internal/session"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	sess, err := session.New(time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, "", sess.Token)
	assert.GreaterOrEqual(t, len(sess.Token), 43) // 32 bytes base64url
	assert.True(t, sess.IsAnonymous())
	assert.False(t, sess.IsLoggedIn)
	assert.False(t, sess.IsExpired())
	assert.False(t, sess.IsDeleted())
	// Fresh sessions must not persist until something mutates them.
	assert.False(t, sess.IsModified())
}

func TestSessionTokensAreUnique(t *testing.T) {
	t.Parallel()

	a, err := session.New(time.Hour)
	require.NoError(t, err)
	b, err := session.New(time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	sess, err := session.New(time.Hour)
	require.NoError(t, err)

	oldToken := sess.Token
	userID := bson.NewObjectID()

	require.NoError(t, sess.Authenticate(userID))

	assert.Equal(t, userID, sess.UserID)
	assert.True(t, sess.IsLoggedIn)
	assert.False(t, sess.IsAnonymous())
	assert.True(t, sess.IsModified())
	// Token rotation prevents session fixation.
	assert.NotEqual(t, oldToken, sess.Token)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	sess, err := session.New(time.Hour)
	require.NoError(t, err)
	require.NoError(t, sess.Authenticate(bson.NewObjectID()))

	sess.Logout()
	assert.True(t, sess.IsDeleted())
	assert.True(t, sess.IsModified())
}

func TestFlashMessages(t *testing.T) {
	t.Parallel()

	t.Run("consume clears pending messages", func(t *testing.T) {
		sess, err := session.New(time.Hour)
		require.NoError(t, err)

		sess.AddFlash("error", "invalid credentials")
		sess.AddFlash("info", "welcome back")

		flashes := sess.ConsumeFlashes()
		require.Len(t, flashes, 2)
		assert.Equal(t, session.Flash{Kind: "error", Message: "invalid credentials"}, flashes[0])
		assert.Equal(t, session.Flash{Kind: "info", Message: "welcome back"}, flashes[1])

		assert.Empty(t, sess.ConsumeFlashes())
	})

	t.Run("consume on empty session is a no-op", func(t *testing.T) {
		sess, err := session.New(time.Hour)
		require.NoError(t, err)

		assert.Nil(t, sess.ConsumeFlashes())
		assert.False(t, sess.IsModified())
	})
}

func TestValues(t *testing.T) {
	t.Parallel()

	sess, err := session.New(time.Hour)
	require.NoError(t, err)

	_, ok := sess.Get("cart")
	assert.False(t, ok)

	sess.Set("cart", "abc123")
	v, ok := sess.Get("cart")
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
	assert.True(t, sess.IsModified())
}

func TestTouch(t *testing.T) {
	t.Parallel()

	t.Run("extends expiration after interval", func(t *testing.T) {
		sess, err := session.New(time.Hour)
		require.NoError(t, err)
		sess.UpdatedAt = time.Now().Add(-10 * time.Minute)
		before := sess.ExpiresAt

		sess.Touch(2*time.Hour, 5*time.Minute)

		assert.True(t, sess.ExpiresAt.After(before))
		assert.True(t, sess.IsModified())
	})

	t.Run("throttled within interval", func(t *testing.T) {
		sess, err := session.New(time.Hour)
		require.NoError(t, err)
		before := sess.ExpiresAt

		sess.Touch(2*time.Hour, 5*time.Minute)

		assert.Equal(t, before, sess.ExpiresAt)
		assert.False(t, sess.IsModified())
	})
}
