package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/daap14/blueprints/internal/api/response"
	"github.com/daap14/blueprints/internal/auth"
)

// APIKeyHeader carries the write API key.
const APIKeyHeader = "X-API-Key"

// Auth is middleware that checks the X-API-Key header against the auth
// service. Missing or invalid keys return 401. When the service has no key
// configured every request passes through.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			requestID := GetRequestID(r.Context())

			rawKey := r.Header.Get(APIKeyHeader)
			if rawKey == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				return
			}

			if err := authService.Authenticate(rawKey); err != nil {
				if errors.Is(err, auth.ErrInvalidKey) {
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key", requestID)
					return
				}
				slog.Error("api key verification failed", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
