// Package upload validates and stores user-submitted files. Only the
// declared MIME type is checked; file content is never sniffed, so a
// renamed payload passes the filter.
package upload

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// acceptedTypes is the image allow-list. Anything else is rejected
// silently: no stored artifact, no error, the downstream file field is
// simply empty.
var acceptedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpg":  {},
	"image/jpeg": {},
}

// Classify reports whether a declared MIME type is an accepted image
// format. Pure function, no I/O.
func Classify(mimeType string) bool {
	_, ok := acceptedTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// StoragePath computes the stored filename for an upload:
// the RFC3339 UTC timestamp with colons replaced by hyphens, a hyphen,
// then the original name. Collision-resistant under normal upload rates
// while keeping a human-readable suffix. Pure function, no I/O.
func StoragePath(t time.Time, originalName string) string {
	ts := strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	return ts + "-" + filepath.Base(originalName)
}

// File describes one accepted, stored upload.
type File struct {
	Field        string // form field the file arrived in
	OriginalName string // client-provided filename
	MIMEType     string // declared content type
	Path         string // storage path or key of the stored object
	Size         int64
}

// Storage writes accepted uploads to a backing store.
type Storage interface {
	// Put stores the content under name and returns the stored path or key.
	Put(ctx context.Context, name string, contentType string, content io.Reader) (string, error)
}
