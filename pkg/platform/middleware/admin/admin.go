package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "bubble/pkg/platform/middleware/request"
	"bubble/pkg/requestcontext"
)

const (
	headerAdminToken = "X-Admin-Token"
	headerActor      = "X-Admin-Actor"
)

// RequireAdminToken guards the admin surface with a shared token. The reviewer
// identity from X-Admin-Actor is stored as the request actor so audit entries
// name who approved or rejected a change.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(headerAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			actor := r.Header.Get(headerActor)
			if actor == "" {
				actor = "admin"
			}
			ctx = requestcontext.WithActorID(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
