// Package app assembles the storefront request pipeline: an explicit
// ordered list of named stages wrapped around three route groups, with a
// single error boundary every unanticipated failure funnels through.
package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/dmitrymomot/shopfront/internal/config"
	"github.com/dmitrymomot/shopfront/internal/logger"
	"github.com/dmitrymomot/shopfront/internal/middleware"
	"github.com/dmitrymomot/shopfront/internal/session"
	"github.com/dmitrymomot/shopfront/internal/static"
	"github.com/dmitrymomot/shopfront/internal/upload"
	"github.com/dmitrymomot/shopfront/internal/user"
)

// RegisterFunc mounts a route group's handlers on a router. The escalate
// callback is the group's single path for forwarding unexpected errors to
// the boundary; handlers must not swallow them.
type RegisterFunc func(r *mux.Router, escalate middleware.ErrorHandler)

// Routes are the three injected route groups. Admin mounts under /admin
// and is registered first; Shop and Auth register on the root router in
// that order. Order matters: an earlier group shadows later ones for the
// paths it claims.
type Routes struct {
	Admin RegisterFunc
	Shop  RegisterFunc
	Auth  RegisterFunc
}

// Deps are the collaborators the pipeline is wired with.
type Deps struct {
	Sessions *session.CookieTransport
	Users    user.Store
	Uploads  upload.Storage
	Routes   Routes
	// AccessLog receives the combined-format access log. Rotation is
	// external; the app only appends.
	AccessLog io.Writer
	Logger    *slog.Logger
}

// stage is one named pipeline step. The slice below is the whole
// middleware ordering; reordering entries reorders the pipeline.
type stage struct {
	name string
	wrap func(http.Handler) http.Handler
}

// App is the composed storefront pipeline.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	handler http.Handler
}

// New assembles the pipeline from the immutable startup configuration.
func New(cfg config.Config, deps Deps) *App {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	a := &App{cfg: cfg, log: log}

	router := mux.NewRouter()

	// Admin first so its prefix shadows any same-suffix path in the
	// unprefixed groups; the unprefixed groups can never intercept
	// /admin/... paths.
	if deps.Routes.Admin != nil {
		deps.Routes.Admin(router.PathPrefix("/admin").Subrouter(), a.Fail)
	}
	if deps.Routes.Shop != nil {
		deps.Routes.Shop(router, a.Fail)
	}
	if deps.Routes.Auth != nil {
		deps.Routes.Auth(router, a.Fail)
	}

	router.HandleFunc(cfg.App.ErrorPath, a.serverError).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(a.notFound)

	csrfOpts := []csrf.Option{
		csrf.Secure(cfg.CSRF.Secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.Fail(w, r, csrf.FailureReason(r))
		})),
	}
	if len(cfg.CSRF.TrustedOrigins) > 0 {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(cfg.CSRF.TrustedOrigins))
	}
	csrfProtect := csrf.Protect([]byte(cfg.CSRF.Key), csrfOpts...)

	csrfStage := csrfProtect
	if !cfg.CSRF.Secure {
		// The guard rejects every non-TLS state-changing request unless
		// the request is marked as intentionally plaintext. Outside TLS
		// the storefront sits behind a terminating proxy, so the mark is
		// tied to the same flag that controls cookie security.
		csrfStage = func(next http.Handler) http.Handler {
			protected := csrfProtect(next)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
			})
		}
	}

	// Top-to-bottom equals outermost-to-innermost. The error boundary
	// sits closest to route dispatch so it catches exactly what the
	// handlers raise.
	stages := []stage{
		{"security-headers", middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			ScriptOrigin: cfg.Security.ScriptOrigin,
			FrameOrigin:  cfg.Security.FrameOrigin,
		})},
		{"compression", handlers.CompressHandler},
		{"access-log", func(next http.Handler) http.Handler {
			if deps.AccessLog == nil {
				return next
			}
			return handlers.CombinedLoggingHandler(deps.AccessLog, next)
		}},
		{"request-log", middleware.Logging(middleware.LoggingConfig{Logger: log})},
		{"upload", middleware.Upload(middleware.UploadConfig{
			Field:   cfg.Upload.Field,
			MaxSize: cfg.Upload.MaxSize,
			Storage: deps.Uploads,
			Fail:    a.Fail,
		})},
		{"static-public", static.Middleware(cfg.Static.PublicDir)},
		{"static-images", mountImages(cfg.Static)},
		{"session", middleware.Session(deps.Sessions, log)},
		{"csrf", csrfStage},
		{"auth", middleware.Auth(deps.Users, a.Fail)},
		{"locals", middleware.WithLocals()},
		{"error-boundary", a.recoverPanics},
	}

	var h http.Handler = router
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i].wrap(h)
	}
	a.handler = h

	return a
}

// Handler returns the fully composed pipeline.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Fail is the error boundary: the one exit point for request-fatal
// errors. The error is logged server-side with full detail and the client
// only ever sees a redirect to the generic error page.
func (a *App) Fail(w http.ResponseWriter, r *http.Request, err error) {
	a.log.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Error(err),
	)
	http.Redirect(w, r, a.cfg.App.ErrorPath, http.StatusFound)
}

// recoverPanics converts a panicking downstream handler into a boundary
// failure.
func (a *App) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = &panicError{value: rec}
				}
				a.Fail(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// mountImages serves the uploaded-images directory under its fixed mount
// prefix, short-circuiting the rest of the pipeline.
func mountImages(cfg config.Static) func(http.Handler) http.Handler {
	dir := static.Dir(cfg.ImagesDir, cfg.ImagesMount)
	prefix := cfg.ImagesMount

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > len(prefix) && r.URL.Path[:len(prefix)+1] == prefix+"/" {
				dir.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
