package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/regivehq/regive/internal/auth"
)

const userIDKey contextKey = "user_id"

// Session resolves the bearer token to a user identity and stores it in the
// request context. Everything except GET /health requires a session.
func Session(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, r)
				return
			}
			// A session-store outage is indistinguishable from an unknown
			// token here; the client retries with the same credentials.
			userID, err := sessions.UserID(r.Context(), token)
			if err != nil {
				writeUnauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying an authenticated user identity.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user set by Session.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func extractToken(r *http.Request) string {
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    "missing or invalid session token",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
