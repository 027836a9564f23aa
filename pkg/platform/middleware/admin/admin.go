// Package admin guards the operator endpoints with bearer tokens.
package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"worldpass/internal/token"
	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/httputil"
	"worldpass/pkg/requestcontext"
)

// RequireAdminToken validates the Authorization bearer token and checks the
// admin role before passing the request through. The authenticated subject
// is placed in the context as the actor for audit logging.
func RequireAdminToken(tokens *token.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := bearerToken(r)
			if raw == "" {
				logger.WarnContext(ctx, "missing admin token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			claims, err := tokens.RequireAdmin(raw)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
