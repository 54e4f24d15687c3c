package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/csrf"
)

// WithLocals populates the view locals every route handler may rely on:
// the authentication flag from the session's stored IsLoggedIn (not from
// user attachment), the CSRF token for forms and the CSP nonce for inline
// scripts. Mounted last in the pipeline so handlers never observe a
// partially-initialized context.
func WithLocals() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locals := Locals{
				CSRFToken: csrf.Token(r),
			}
			if sess, ok := SessionFromContext(r.Context()); ok {
				locals.IsAuthenticated = sess.IsLoggedIn
			}
			if nonce, ok := NonceFromContext(r.Context()); ok {
				locals.Nonce = nonce
			}

			ctx := context.WithValue(r.Context(), localsCtxKey, locals)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
