package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/shopfront/internal/session"
)

func newTransport(t *testing.T) (*session.CookieTransport, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, time.Hour, 5*time.Minute)
	return session.NewCookieTransport(mgr, "sid", false), store
}

func TestTransportLoad(t *testing.T) {
	t.Parallel()

	t.Run("no cookie yields anonymous session", func(t *testing.T) {
		tr, _ := newTransport(t)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		sess, err := tr.Load(r)
		require.NoError(t, err)
		assert.True(t, sess.IsAnonymous())
		assert.False(t, sess.IsModified())
	})

	t.Run("unknown token yields fresh anonymous session", func(t *testing.T) {
		tr, _ := newTransport(t)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "stale-token"})

		sess, err := tr.Load(r)
		require.NoError(t, err)
		assert.True(t, sess.IsAnonymous())
	})

	t.Run("valid token restores session", func(t *testing.T) {
		tr, store := newTransport(t)

		sess, err := session.New(time.Hour)
		require.NoError(t, err)
		userID := bson.NewObjectID()
		require.NoError(t, sess.Authenticate(userID))
		require.NoError(t, store.Save(t.Context(), &sess))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: sess.Token})

		got, err := tr.Load(r)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, userID, got.UserID)
	})
}

func TestTransportSave(t *testing.T) {
	t.Parallel()

	t.Run("untouched session issues no cookie", func(t *testing.T) {
		tr, store := newTransport(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		sess, err := tr.Load(r)
		require.NoError(t, err)

		require.NoError(t, tr.Save(w, r, &sess))
		assert.Empty(t, w.Result().Cookies())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("modified session is persisted and cookie issued", func(t *testing.T) {
		tr, store := newTransport(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		sess, err := tr.Load(r)
		require.NoError(t, err)
		require.NoError(t, sess.Authenticate(bson.NewObjectID()))

		require.NoError(t, tr.Save(w, r, &sess))

		assert.Equal(t, 1, store.Len())
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sid", cookies[0].Name)
		assert.Equal(t, sess.Token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Positive(t, cookies[0].MaxAge)
	})

	t.Run("deleted session clears cookie and store", func(t *testing.T) {
		tr, store := newTransport(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		sess, err := tr.Load(r)
		require.NoError(t, err)
		require.NoError(t, sess.Authenticate(bson.NewObjectID()))
		require.NoError(t, tr.Save(w, r, &sess))
		require.Equal(t, 1, store.Len())

		w = httptest.NewRecorder()
		sess.Logout()
		require.NoError(t, tr.Save(w, r, &sess))

		assert.Equal(t, 0, store.Len())
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}
