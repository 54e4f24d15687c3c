package session

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the persistence interface for session records.
// Implementations must be safe for concurrent use; cross-request
// synchronization is the datastore's job, not the pipeline's.
type Store interface {
	GetByToken(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired sessions and returns the deleted count.
	DeleteExpired(ctx context.Context) (int64, error)
}
