// Package static serves public assets and user-uploaded images directly
// from disk. Directory listing is disabled everywhere.
package static

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Middleware serves files from the public directory when they exist and
// falls through to next otherwise, so the asset mount short-circuits the
// pipeline only for real files.
func Middleware(publicDir string) func(http.Handler) http.Handler {
	root := filepath.Clean(publicDir)
	fileServer := http.FileServer(neuteredFileSystem{http.Dir(root)})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cleanPath := path.Clean(r.URL.Path)
			if cleanPath == "/" {
				next.ServeHTTP(w, r)
				return
			}

			full := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(cleanPath, "/")))
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				next.ServeHTTP(w, r)
				return
			}

			fileServer.ServeHTTP(w, r)
		})
	}
}

// Dir creates a handler that serves files from a directory, for mounting
// under a fixed prefix. The prefix is stripped before the disk lookup.
func Dir(root, stripPrefix string) http.Handler {
	fileServer := http.FileServer(neuteredFileSystem{http.Dir(filepath.Clean(root))})
	if stripPrefix != "" {
		return http.StripPrefix(stripPrefix, fileServer)
	}
	return fileServer
}

// neuteredFileSystem wraps http.FileSystem to disable directory listing.
type neuteredFileSystem struct {
	http.FileSystem
}

func (nfs neuteredFileSystem) Open(name string) (http.File, error) {
	f, err := nfs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}

	s, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if s.IsDir() {
		index := filepath.Join(name, "index.html")
		if _, err := nfs.FileSystem.Open(index); err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
	}

	return f, nil
}
