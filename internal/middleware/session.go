package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/shopfront/internal/logger"
	"github.com/dmitrymomot/shopfront/internal/session"
)

// Session loads the request's session through the cookie transport,
// shares it on the context and persists it again when the response
// starts. Load degrades gracefully to an anonymous session. The save runs
// just before the first byte of the response is written, while the
// Set-Cookie header can still go out; a save failure at that point can
// only be logged. Handlers must make all session mutations before their
// first Write or WriteHeader call: mutations after the response has
// started are not persisted.
func Session(transport *session.CookieTransport, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := transport.Load(r)
			if err != nil {
				// Manager.New failing means no entropy; proceed with a
				// zero session rather than dropping the request.
				log.ErrorContext(r.Context(), "session load failed", logger.Error(err))
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey, &sess)
			r = r.WithContext(ctx)

			cw := &commitWriter{
				ResponseWriter: w,
				commit: func(hw http.ResponseWriter) {
					if err := transport.Save(hw, r, &sess); err != nil {
						log.ErrorContext(r.Context(), "session save failed", logger.Error(err))
					}
				},
			}

			next.ServeHTTP(cw, r)

			// Handlers that never write still need their session stored.
			cw.ensureCommitted()
		})
	}
}

// commitWriter defers the session save until the response is about to be
// written, keeping the Set-Cookie header writable.
type commitWriter struct {
	http.ResponseWriter
	commit    func(http.ResponseWriter)
	committed bool
}

func (w *commitWriter) ensureCommitted() {
	if !w.committed {
		w.committed = true
		w.commit(w.ResponseWriter)
	}
}

func (w *commitWriter) WriteHeader(status int) {
	w.ensureCommitted()
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(p []byte) (int, error) {
	w.ensureCommitted()
	return w.ResponseWriter.Write(p)
}
