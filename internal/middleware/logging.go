package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/shopfront/internal/logger"
)

// LoggingConfig configures the request logging stage.
type LoggingConfig struct {
	// Logger is the slog logger to use (default: slog.Default()).
	Logger *slog.Logger
	// SlowRequestThreshold logs slow requests at warning level (default: 5s).
	SlowRequestThreshold time.Duration
}

// Logging logs one structured record per request: method, path, status
// and duration. Requests slower than the threshold are logged at warning
// level.
func Logging(cfg LoggingConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				logger.Duration(elapsed),
			}

			if elapsed >= cfg.SlowRequestThreshold {
				cfg.Logger.Warn("slow request", attrs...)
				return
			}
			cfg.Logger.Info("request", attrs...)
		})
	}
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
