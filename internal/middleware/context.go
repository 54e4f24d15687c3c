// Package middleware provides the ordered pipeline stages the storefront
// request passes through: security headers, request logging, upload
// parsing, session loading, user attachment and view locals. Stages are
// plain func(http.Handler) http.Handler values composed by the app; state
// travels on the request context and never outlives one request.
package middleware

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/shopfront/internal/session"
	"github.com/dmitrymomot/shopfront/internal/upload"
	"github.com/dmitrymomot/shopfront/internal/user"
)

type ctxKey int

const (
	nonceCtxKey ctxKey = iota
	sessionCtxKey
	userCtxKey
	fileCtxKey
	localsCtxKey
)

// ErrorHandler is the single escalation path for request-fatal errors.
// Stages and handlers forward unexpected errors here instead of writing
// their own responses; the app's error boundary logs and redirects.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Locals is the per-request view state guaranteed to be populated before
// any route handler below the pipeline runs.
type Locals struct {
	// IsAuthenticated mirrors the session's stored login flag,
	// independent of whether a user record was attached. A dangling
	// user reference leaves it unchanged.
	IsAuthenticated bool
	// CSRFToken is the anti-forgery token forms must echo back.
	CSRFToken string
	// Nonce is the per-request CSP nonce for inline script tags.
	Nonce string
}

// NonceFromContext returns the per-request CSP nonce.
func NonceFromContext(ctx context.Context) (string, bool) {
	nonce, ok := ctx.Value(nonceCtxKey).(string)
	return nonce, ok
}

// SessionFromContext returns the request's session. The pointer is shared
// with the session stage, so mutations made by handlers are persisted
// after the request.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionCtxKey).(*session.Session)
	return sess, ok
}

// UserFromContext returns the resolved user record, if one was attached.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*user.User)
	return u, ok
}

// FileFromContext returns the stored upload descriptor, if the request
// carried an accepted file.
func FileFromContext(ctx context.Context) (*upload.File, bool) {
	f, ok := ctx.Value(fileCtxKey).(*upload.File)
	return f, ok
}

// LocalsFromContext returns the view locals. The zero value is returned
// when called above the locals stage.
func LocalsFromContext(ctx context.Context) Locals {
	l, _ := ctx.Value(localsCtxKey).(Locals)
	return l
}
