package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/shopfront/internal/app"
	"github.com/dmitrymomot/shopfront/internal/config"
	"github.com/dmitrymomot/shopfront/internal/database"
	"github.com/dmitrymomot/shopfront/internal/logger"
	"github.com/dmitrymomot/shopfront/internal/middleware"
	"github.com/dmitrymomot/shopfront/internal/server"
	"github.com/dmitrymomot/shopfront/internal/session"
	"github.com/dmitrymomot/shopfront/internal/upload"
	"github.com/dmitrymomot/shopfront/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The database connection gates everything: if it fails, the process
	// logs and exits without ever opening the listener.
	db, err := database.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		log.Error("database connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer db.Client().Disconnect(context.Background())
	log.Info("database connected", logger.Component("bootstrap"))

	var sessionStore session.Store
	if cfg.Session.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Error("invalid redis url", logger.Error(err))
			os.Exit(1)
		}
		sessionStore = session.NewRedisStore(redis.NewClient(redisOpts))
	} else {
		sessionStore, err = session.NewMongoStore(ctx, db, cfg.Session.Collection)
		if err != nil {
			log.Error("session store init failed", logger.Error(err))
			os.Exit(1)
		}
	}

	manager := session.NewManager(sessionStore, cfg.Session.TTL, cfg.Session.TouchInterval)
	transport := session.NewCookieTransport(manager, cfg.Session.CookieName, cfg.Session.CookieSecure)

	var uploads upload.Storage
	if cfg.Upload.S3Bucket != "" {
		uploads, err = upload.NewS3Storage(ctx, upload.S3Config{
			Bucket:      cfg.Upload.S3Bucket,
			Region:      cfg.Upload.S3Region,
			AccessKeyID: cfg.Upload.S3AccessKeyID,
			SecretKey:   cfg.Upload.S3SecretKey,
		})
	} else {
		uploads, err = upload.NewDiskStorage(cfg.Upload.Dir)
	}
	if err != nil {
		log.Error("upload storage init failed", logger.Error(err))
		os.Exit(1)
	}

	accessLog, err := os.OpenFile(cfg.Log.AccessPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error("access log open failed", logger.Error(err))
		os.Exit(1)
	}
	defer accessLog.Close()

	users := user.NewMongoStore(db, "users")

	application := app.New(cfg, app.Deps{
		Sessions:  transport,
		Users:     users,
		Uploads:   uploads,
		Routes:    placeholderRoutes(),
		AccessLog: accessLog,
		Logger:    log,
	})

	srv := server.New(cfg.App.Addr(), server.WithLogger(log))

	log.Info("storefront started", logger.Component("bootstrap"), "addr", cfg.App.Addr())
	if err := srv.Run(ctx, application.Handler()); err != nil {
		log.Error("server failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("storefront stopped")
}

// placeholderRoutes wires minimal stand-ins for the three route groups.
// The real catalog, checkout and auth handlers are separate collaborators
// mounted through the same registrar signatures.
func placeholderRoutes() app.Routes {
	page := func(title string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			locals := middleware.LocalsFromContext(r.Context())
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1>", title, title)
			fmt.Fprintf(w, `<script nonce=%q>/* inline bootstrap */</script>`, locals.Nonce)
			fmt.Fprintf(w, `<form method="POST"><input type="hidden" name="gorilla.csrf.Token" value=%q></form>`, locals.CSRFToken)
			fmt.Fprint(w, "</body></html>")
		}
	}

	return app.Routes{
		Admin: func(r *mux.Router, escalate middleware.ErrorHandler) {
			r.HandleFunc("/products", page("Admin Products")).Methods(http.MethodGet)
		},
		Shop: func(r *mux.Router, escalate middleware.ErrorHandler) {
			r.HandleFunc("/", page("Shop")).Methods(http.MethodGet)
			r.HandleFunc("/products", page("Products")).Methods(http.MethodGet)
		},
		Auth: func(r *mux.Router, escalate middleware.ErrorHandler) {
			r.HandleFunc("/login", page("Login")).Methods(http.MethodGet)
		},
	}
}
