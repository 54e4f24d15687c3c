package session

import (
	"context"
	"errors"
	"time"
)

// Manager handles session lifecycle against a Store. The touch interval
// throttles expiration extension writes on busy sessions.
type Manager struct {
	store         Store
	ttl           time.Duration
	touchInterval time.Duration
}

// NewManager creates a session manager with the given store, time-to-live
// and touch interval.
func NewManager(store Store, ttl, touchInterval time.Duration) *Manager {
	return &Manager{
		store:         store,
		ttl:           ttl,
		touchInterval: touchInterval,
	}
}

// New creates a fresh anonymous session. It is not persisted until it is
// modified and stored, so unauthenticated crawls never fill the session
// collection.
func (m *Manager) New() (Session, error) {
	return New(m.ttl)
}

// GetByToken retrieves a session by token and validates expiration.
func (m *Manager) GetByToken(ctx context.Context, token string) (Session, error) {
	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return Session{}, err
	}

	if sess.IsExpired() {
		return Session{}, ErrExpired
	}

	// A freshly loaded session is clean regardless of how the backing
	// store materialized it.
	sess.modified = false

	return *sess, nil
}

// Store persists the session according to its state: deleted sessions are
// removed from the store, modified sessions are saved, untouched sessions
// produce no write at all.
func (m *Manager) Store(ctx context.Context, sess *Session) error {
	if sess.IsDeleted() {
		if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		return nil
	}

	sess.Touch(m.ttl, m.touchInterval)

	if sess.IsModified() {
		if err := m.store.Save(ctx, sess); err != nil {
			return errors.Join(ErrSaveSession, err)
		}
	}

	return nil
}

// CleanupExpired removes all expired sessions from the store. Meant to be
// called periodically to keep the session collection from growing.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

// TTL returns the session time-to-live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
