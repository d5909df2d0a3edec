package middleware

import (
	"context"
	"net/http"
	"strings"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
)

const IdentityKey contextKey = "caller_identity"

// CallerIdentity copies the trusted identity header into the request context.
// Mutating requests without it are rejected with 401; reads pass through.
func CallerIdentity(headerName string, log *logger.Logger) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "X-User-ID"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := strings.TrimSpace(r.Header.Get(headerName))

			if identity == "" {
				if isMutation(r.Method) {
					rejectAnonymous(w, log, r, headerName)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func IdentityFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(IdentityKey).(string); ok {
		return id
	}
	return ""
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func rejectAnonymous(w http.ResponseWriter, log *logger.Logger, r *http.Request, headerName string) {
	log.Warn("Mutating request without caller identity",
		"request_id", RequestIDFromContext(r.Context()),
		"header", headerName,
		"method", r.Method,
		"path", r.URL.Path,
	)

	if err := httputil.WriteError(w, apperrors.Unauthorized("Missing caller identity")); err != nil {
		log.Error("failed to write error response", "middleware", "CallerIdentity", "error", err)
	}
}
