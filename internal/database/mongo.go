// Package database provides MongoDB client initialization for the
// storefront. It wraps the official driver with bounded connection
// retries, which smooths over Atlas cold starts and brief network hiccups
// at process startup.
package database

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/dmitrymomot/shopfront/internal/config"
)

var (
	// ErrFailedToConnect is returned when all connection attempts are exhausted.
	ErrFailedToConnect = errors.New("failed to connect to mongodb")
	// ErrHealthcheckFailed is returned when the health check ping fails.
	ErrHealthcheckFailed = errors.New("mongodb healthcheck failed")
)

// Connect establishes a verified MongoDB connection from config. The URI
// requests retryable writes, majority write concern and TLS; certificate
// validation is always on, an invalid certificate fails the connection
// rather than downgrading. Each attempt is verified with a ping so a
// returned client is actually usable. The caller must not start serving
// traffic until Connect has succeeded.
func Connect(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := mongo.Connect(opts)
		if err != nil {
			lastErr = err
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
			err = client.Ping(pingCtx, readpref.Primary())
			cancel()
			if err == nil {
				return client, nil
			}
			lastErr = err
			_ = client.Disconnect(ctx)
		}

		if attempt < attempts {
			select {
			case <-time.After(cfg.RetryInterval):
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToConnect, ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFailedToConnect, attempts, lastErr)
}

// NewWithDatabase connects and returns the configured database handle.
func NewWithDatabase(ctx context.Context, cfg config.Mongo) (*mongo.Database, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Database(cfg.Database), nil
}

// Healthcheck returns a probe function that pings the primary.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
