// Package user holds the persisted user identity and its lookup contract.
// The request pipeline resolves a user at most once per request from the
// id the session carries; everything beyond the lookup contract (profile
// shape, roles) is opaque to the pipeline.
package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrNotFound is returned when no user matches the given id. It is an
// expected condition (deleted account, stale session reference) and must
// never be escalated; any other lookup error is a datastore failure and
// request-fatal.
var ErrNotFound = errors.New("user not found")

// User is a persisted identity record.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Name         string        `bson:"name,omitempty"`
	IsAdmin      bool          `bson:"is_admin,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
}

// Store is the lookup contract consumed by the authentication middleware.
// Implementations must distinguish "not found" (ErrNotFound) from
// datastore errors.
type Store interface {
	ByID(ctx context.Context, id bson.ObjectID) (*User, error)
}
