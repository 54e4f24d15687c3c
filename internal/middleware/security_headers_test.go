package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopfront/internal/middleware"
)

var noncePattern = regexp.MustCompile(`'nonce-([A-Za-z0-9+/]+=*)'`)

func cspHandler(t *testing.T) http.Handler {
	t.Helper()

	mw := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		ScriptOrigin: "https://js.stripe.com/v3/",
		FrameOrigin:  "https://js.stripe.com/",
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, ok := middleware.NonceFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(nonce))
	}))
}

func TestSecurityHeadersPolicy(t *testing.T) {
	t.Parallel()

	h := cspHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "script-src 'self' https://js.stripe.com/v3/ 'nonce-")
	assert.Contains(t, csp, "frame-src https://js.stripe.com/")
	assert.Contains(t, csp, "object-src 'none'")
	assert.Contains(t, csp, "upgrade-insecure-requests")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestSecurityHeadersNonce(t *testing.T) {
	t.Parallel()

	h := cspHandler(t)

	t.Run("header nonce matches context nonce", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		m := noncePattern.FindStringSubmatch(w.Header().Get("Content-Security-Policy"))
		require.Len(t, m, 2)
		assert.Equal(t, m[1], w.Body.String())
	})

	t.Run("nonce is unique per request", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 20 {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			m := noncePattern.FindStringSubmatch(w.Header().Get("Content-Security-Policy"))
			require.Len(t, m, 2)
			// >=16 bytes of randomness before encoding.
			assert.GreaterOrEqual(t, len(m[1]), 24)

			_, dup := seen[m[1]]
			assert.False(t, dup, "nonce %q repeated", m[1])
			seen[m[1]] = struct{}{}
		}
	})
}
