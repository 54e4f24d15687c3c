package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	redisKeyPrefix   = "session:"
	redisTokenPrefix = "session:token:"
)

// redisDoc mirrors sessionDoc for JSON serialization in Redis.
type redisDoc struct {
	ID         string            `json:"id"`
	Token      string            `json:"token"`
	UserID     string            `json:"user_id,omitempty"`
	IsLoggedIn bool              `json:"is_logged_in"`
	Flash      []Flash           `json:"flash,omitempty"`
	Values     map[string]string `json:"values,omitempty"`
	ExpiresAt  time.Time         `json:"expires_at"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// RedisStore persists sessions in Redis with native TTL expiry. Each
// session occupies two keys: the record under its id and a token index
// pointing at the id, both expiring together.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	id, err := s.client.Get(ctx, redisTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc redisDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc.toSession()
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	doc := redisDoc{
		ID:         sess.ID.String(),
		Token:      sess.Token,
		IsLoggedIn: sess.IsLoggedIn,
		Flash:      sess.Flash,
		Values:     sess.Values,
		ExpiresAt:  sess.ExpiresAt,
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.UpdatedAt,
	}
	if !sess.UserID.IsZero() {
		doc.UserID = sess.UserID.Hex()
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	// Drop a stale token index if the token was rotated.
	if old, err := s.client.Get(ctx, redisKeyPrefix+doc.ID).Result(); err == nil {
		var prev redisDoc
		if json.Unmarshal([]byte(old), &prev) == nil && prev.Token != doc.Token {
			s.client.Del(ctx, redisTokenPrefix+prev.Token)
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+doc.ID, raw, ttl)
	pipe.Set(ctx, redisTokenPrefix+doc.Token, doc.ID, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	var doc redisDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+id.String())
	pipe.Del(ctx, redisTokenPrefix+doc.Token)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteExpired is a no-op for Redis: keys expire natively via TTL.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (d redisDoc) toSession() (*Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	var userID bson.ObjectID
	if d.UserID != "" {
		userID, err = bson.ObjectIDFromHex(d.UserID)
		if err != nil {
			return nil, err
		}
	}

	return &Session{
		ID:         id,
		Token:      d.Token,
		UserID:     userID,
		IsLoggedIn: d.IsLoggedIn,
		Flash:      d.Flash,
		Values:     d.Values,
		ExpiresAt:  d.ExpiresAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
