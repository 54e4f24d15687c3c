package user

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoStore implements Store against a users collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a Mongo-backed user store.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) ByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var u User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ByEmail looks up a user by email for the login flow.
func (s *MongoStore) ByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record and returns it with the generated id.
func (s *MongoStore) Create(ctx context.Context, u *User) error {
	res, err := s.coll.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		u.ID = id
	}
	return nil
}
