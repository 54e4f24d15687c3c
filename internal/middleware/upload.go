package middleware

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/shopfront/internal/upload"
)

// UploadConfig configures the upload parsing stage.
type UploadConfig struct {
	// Field is the multipart form field holding the file.
	Field string
	// MaxSize bounds the in-memory multipart parse.
	MaxSize int64
	// Storage receives accepted files.
	Storage upload.Storage
	// Fail is the escalation path for storage failures.
	Fail ErrorHandler
}

// Upload parses multipart submissions and stores an accepted image under
// a timestamped name, attaching its descriptor to the context. A missing
// file or a disallowed MIME type is not an error: the stage simply passes
// the request on with no file attached, and route handlers observe an
// empty field. Only a storage write failure escalates.
func Upload(cfg UploadConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}

			if err := r.ParseMultipartForm(cfg.MaxSize); err != nil {
				// Malformed body is a client problem, not a pipeline
				// failure; continue without a file like any other reject.
				next.ServeHTTP(w, r)
				return
			}

			file, header, err := r.FormFile(cfg.Field)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			defer file.Close()

			mimeType := header.Header.Get("Content-Type")
			if !upload.Classify(mimeType) {
				next.ServeHTTP(w, r)
				return
			}

			name := upload.StoragePath(time.Now(), header.Filename)
			path, err := cfg.Storage.Put(r.Context(), name, mimeType, file)
			if err != nil {
				cfg.Fail(w, r, err)
				return
			}

			stored := &upload.File{
				Field:        cfg.Field,
				OriginalName: header.Filename,
				MIMEType:     mimeType,
				Path:         path,
				Size:         header.Size,
			}
			ctx := context.WithValue(r.Context(), fileCtxKey, stored)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isMultipart(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(ct, "multipart/")
}
