package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
)

// nonceSize is the amount of randomness per CSP nonce. 16 bytes before
// encoding satisfies the uniqueness the inline-script allow-list depends
// on.
const nonceSize = 16

// SecurityHeadersConfig configures the security headers stage. The policy
// origins are fixed at startup; only the nonce varies per request.
type SecurityHeadersConfig struct {
	// ScriptOrigin is the external origin allowed to serve scripts
	// (the payment provider's script host).
	ScriptOrigin string
	// FrameOrigin is the external origin allowed to embed frames
	// (the payment provider's checkout frames).
	FrameOrigin string
}

// SecurityHeaders builds the Content-Security-Policy for every response.
// A fresh nonce is generated per request, never cached or reused, and
// stored in the context for view rendering. The policy restricts default
// fetches to self, allow-lists self, the payment origin and nonce-tagged
// inline scripts, confines frames to the payment origin, forbids plugin
// embeds and upgrades insecure subresource requests.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	// Static parts of the policy never change; pre-build everything but
	// the nonce.
	prefix := "default-src 'self'; script-src 'self'"
	if cfg.ScriptOrigin != "" {
		prefix += " " + cfg.ScriptOrigin
	}
	var suffix strings.Builder
	if cfg.FrameOrigin != "" {
		suffix.WriteString("; frame-src " + cfg.FrameOrigin)
	}
	suffix.WriteString("; object-src 'none'; upgrade-insecure-requests")

	staticHeaders := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := generateNonce()
			if err != nil {
				// No usable entropy source; nothing sensible to serve.
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			for key, value := range staticHeaders {
				w.Header().Set(key, value)
			}
			w.Header().Set("Content-Security-Policy",
				prefix+" 'nonce-"+nonce+"'"+suffix.String())

			ctx := context.WithValue(r.Context(), nonceCtxKey, nonce)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateNonce() (string, error) {
	b := make([]byte, nonceSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
