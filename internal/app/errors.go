package app

import (
	"fmt"
	"net/http"
)

// panicError wraps a recovered non-error panic value.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// serverError renders the generic error page. Mounted at the configured
// error path it answers unconditionally, which makes it a safe redirect
// target for the boundary.
func (a *App) serverError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body><h1>Something went wrong.</h1><p>We are working on it, please try again later.</p></body>
</html>`)
}

// notFound is the catch-all for requests matching no route.
func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Page Not Found</title></head>
<body><h1>Page Not Found</h1></body>
</html>`)
}
