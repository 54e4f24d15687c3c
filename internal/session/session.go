// Package session implements database-backed sessions for the storefront.
// Session lifetime is decoupled from process lifetime: records live in a
// named collection of the application database (or in Redis), keyed by
// session id, and the client holds only an opaque token in a cookie.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Flash is a one-time message attached to a session, consumed and cleared
// on the next rendered page.
type Flash struct {
	Kind    string `bson:"kind" json:"kind"`
	Message string `bson:"message" json:"message"`
}

// Session is one session record. UserID is a weak reference: it holds only
// the user's id, never the record itself, and may dangle if the account is
// deleted. IsLoggedIn is tracked independently of whether that reference
// still resolves.
type Session struct {
	// ID is the stable unique session identifier.
	ID uuid.UUID

	// Token is the cryptographically secure session token (32 bytes
	// base64url) used as the cookie value. Rotated on authentication.
	Token string

	// UserID references the authenticated user (zero for anonymous).
	UserID bson.ObjectID

	// IsLoggedIn records the login flag as stored in the session,
	// independent of user record resolution.
	IsLoggedIn bool

	// Flash holds pending one-time messages.
	Flash []Flash

	// Values holds arbitrary application keys.
	Values map[string]string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt time.Time

	// modified tracks whether the session needs saving. Fresh sessions
	// start unmodified so purely anonymous requests never persist a
	// record or receive a cookie.
	modified bool
}

// New creates a fresh anonymous session with a generated token and id.
func New(ttl time.Duration) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	return Session{
		ID:        uuid.New(),
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Authenticate binds the session to a user and sets the login flag.
// Rotates the token to prevent session fixation; the session id stays
// stable.
func (s *Session) Authenticate(userID bson.ObjectID) error {
	if err := s.rotateToken(); err != nil {
		return err
	}
	s.UserID = userID
	s.IsLoggedIn = true
	s.UpdatedAt = time.Now()
	s.modified = true
	return nil
}

// Logout marks the session for destruction.
func (s *Session) Logout() {
	s.DeletedAt = time.Now()
	s.modified = true
}

// AddFlash queues a one-time message.
func (s *Session) AddFlash(kind, message string) {
	s.Flash = append(s.Flash, Flash{Kind: kind, Message: message})
	s.UpdatedAt = time.Now()
	s.modified = true
}

// ConsumeFlashes returns all pending flash messages and clears them.
func (s *Session) ConsumeFlashes() []Flash {
	if len(s.Flash) == 0 {
		return nil
	}
	flashes := s.Flash
	s.Flash = nil
	s.UpdatedAt = time.Now()
	s.modified = true
	return flashes
}

// Set stores an arbitrary key/value pair.
func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
	s.UpdatedAt = time.Now()
	s.modified = true
}

// Get returns the value stored under key, if any.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Touch extends the expiration if the touch interval has elapsed,
// throttling store writes on busy sessions.
func (s *Session) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		s.ExpiresAt = time.Now().Add(ttl)
		s.UpdatedAt = time.Now()
		s.modified = true
	}
}

// IsAnonymous reports whether the session references no user.
func (s Session) IsAnonymous() bool {
	return s.UserID.IsZero()
}

// IsDeleted reports whether the session is marked for destruction.
func (s Session) IsDeleted() bool {
	return !s.DeletedAt.IsZero()
}

// IsExpired reports whether the session has expired.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsModified reports whether the session needs saving.
func (s Session) IsModified() bool {
	return s.modified
}

func (s *Session) rotateToken() error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	s.Token = token
	s.modified = true
	return nil
}

// generateToken creates a 32-byte (256-bit) random token encoded as
// base64 URL-safe without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
