package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jomko/go-session-api/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated user's public fields
	ContextKeyUser ContextKey = "user"
	// ContextKeyBearer stores the raw bearer token of the request
	ContextKeyBearer ContextKey = "bearer"
)

// RequireAuth is middleware that resolves the Bearer token in the
// Authorization header to a live session. Requests without one are rejected
// with 401 before the handler runs.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			user, err := s.auth.CurrentUser(r.Context(), rawToken)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
			ctx = context.WithValue(ctx, ContextKeyBearer, rawToken)
			next(w, r.WithContext(ctx))
		}
	}
}

// userFromContext extracts the authenticated user injected by RequireAuth.
func userFromContext(ctx context.Context) (users.PublicUser, bool) {
	user, ok := ctx.Value(ContextKeyUser).(users.PublicUser)
	return user, ok
}

// bearerFromContext extracts the raw bearer token injected by RequireAuth.
func bearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyBearer).(string)
	return token
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
