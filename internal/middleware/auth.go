package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/shopfront/internal/user"
)

// Auth resolves the session's user reference into a full record and
// attaches it to the request context. No session, no user reference and a
// reference that no longer resolves all stay anonymous; the stale
// reference is left in the session untouched. A datastore failure during
// the lookup escalates to the error boundary instead of being treated as
// "no such user".
func Auth(users user.Store, fail ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || sess.IsAnonymous() {
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.ByID(r.Context(), sess.UserID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				fail(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
