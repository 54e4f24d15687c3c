package session

import (
	"net/http"
	"time"
)

// CookieTransport moves the session token between the client and the
// store via an HttpOnly cookie. Load always degrades gracefully: a
// missing, unknown or expired token yields a fresh anonymous session, not
// an error.
type CookieTransport struct {
	manager *Manager
	name    string
	secure  bool
}

// NewCookieTransport creates a cookie-based session transport.
func NewCookieTransport(manager *Manager, cookieName string, secure bool) *CookieTransport {
	return &CookieTransport{
		manager: manager,
		name:    cookieName,
		secure:  secure,
	}
}

// Load resolves the request's session. No cookie, an unknown token or an
// expired record all produce a fresh anonymous session.
func (t *CookieTransport) Load(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(t.name)
	if err != nil {
		return t.manager.New()
	}

	sess, err := t.manager.GetByToken(r.Context(), cookie.Value)
	if err != nil {
		return t.manager.New()
	}

	return sess, nil
}

// Save persists the session and keeps the client cookie in sync. Deleted
// sessions clear the cookie; modified sessions re-issue it so the cookie
// Max-Age tracks server-side expiration and rotated tokens reach the
// client.
func (t *CookieTransport) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess.IsDeleted() {
		if err := t.manager.Store(r.Context(), sess); err != nil {
			return err
		}
		t.clearCookie(w)
		return nil
	}

	wasModified := sess.IsModified()
	if err := t.manager.Store(r.Context(), sess); err != nil {
		return err
	}

	if wasModified || sess.IsModified() {
		t.setCookie(w, sess)
	}
	return nil
}

func (t *CookieTransport) setCookie(w http.ResponseWriter, sess *Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (t *CookieTransport) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
