package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// sessionDoc is the persisted shape of a session. The session id is the
// document key; the token carries a unique index for lookup.
type sessionDoc struct {
	ID         string            `bson:"_id"`
	Token      string            `bson:"token"`
	UserID     bson.ObjectID     `bson:"user_id,omitempty"`
	IsLoggedIn bool              `bson:"is_logged_in"`
	Flash      []Flash           `bson:"flash,omitempty"`
	Values     map[string]string `bson:"values,omitempty"`
	ExpiresAt  time.Time         `bson:"expires_at"`
	CreatedAt  time.Time         `bson:"created_at"`
	UpdatedAt  time.Time         `bson:"updated_at"`
}

// MongoStore persists sessions in a named MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a Mongo-backed session store on the given
// collection and ensures the token lookup index exists.
func NewMongoStore(ctx context.Context, db *mongo.Database, collection string) (*MongoStore, error) {
	coll := db.Collection(collection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toSession()
}

func (s *MongoStore) Save(ctx context.Context, sess *Session) error {
	doc := toDoc(sess)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func toDoc(sess *Session) sessionDoc {
	return sessionDoc{
		ID:         sess.ID.String(),
		Token:      sess.Token,
		UserID:     sess.UserID,
		IsLoggedIn: sess.IsLoggedIn,
		Flash:      sess.Flash,
		Values:     sess.Values,
		ExpiresAt:  sess.ExpiresAt,
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.UpdatedAt,
	}
}

func (d sessionDoc) toSession() (*Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         id,
		Token:      d.Token,
		UserID:     d.UserID,
		IsLoggedIn: d.IsLoggedIn,
		Flash:      d.Flash,
		Values:     d.Values,
		ExpiresAt:  d.ExpiresAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
