package server_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopfront/internal/config"
	"github.com/dmitrymomot/shopfront/internal/database"
	"github.com/dmitrymomot/shopfront/internal/server"
)

// freeAddr reserves an ephemeral port and releases it so the test can
// hand the address to the server under test.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func waitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server on %s never started listening", addr)
}

func TestServerLifecycle(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	t.Run("serves requests until context cancellation", func(t *testing.T) {
		t.Parallel()

		addr := freeAddr(t)
		srv := server.New(addr, server.WithShutdownTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx, handler) }()

		waitForListener(t, addr)

		resp, err := http.Get("http://" + addr + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}

		_, err = net.DialTimeout("tcp", addr, 100*time.Millisecond)
		assert.Error(t, err)
	})

	t.Run("start twice returns ErrAlreadyRunning", func(t *testing.T) {
		t.Parallel()

		addr := freeAddr(t)
		srv := server.New(addr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go srv.Start(ctx, handler)
		waitForListener(t, addr)

		err := srv.Start(ctx, handler)
		assert.ErrorIs(t, err, server.ErrAlreadyRunning)

		require.NoError(t, srv.Stop())
	})

	t.Run("stop on idle server is a no-op", func(t *testing.T) {
		t.Parallel()
		srv := server.New(freeAddr(t))
		assert.NoError(t, srv.Stop())
	})
}

// TestBootstrapGatesOnDatabase runs the startup sequence from cmd/server
// in miniature: connect to the database first, construct and start the
// server only on success. A failed connection must abort before the
// server is ever built, leaving the chosen port closed.
func TestBootstrapGatesOnDatabase(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Mongo{
		Host:           "127.0.0.1:1", // nothing listens here
		Database:       "shop",
		ConnectTimeout: 200 * time.Millisecond,
		RetryAttempts:  1,
	}

	serverStarted := false
	bootstrap := func() error {
		db, err := database.NewWithDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Client().Disconnect(ctx)

		serverStarted = true
		srv := server.New(addr)
		return srv.Run(ctx, http.NotFoundHandler())
	}

	err := bootstrap()
	require.ErrorIs(t, err, database.ErrFailedToConnect)
	assert.False(t, serverStarted, "server must not start when the database is unreachable")

	_, dialErr := net.DialTimeout("tcp", addr, 100*time.Millisecond)
	assert.Error(t, dialErr)
}
