// Package requesttime pins one "now" per request so every timestamp written
// while serving it (audit entries, lock dates, review decisions) agrees.
package requesttime

import (
	"net/http"
	"time"

	"bubble/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
