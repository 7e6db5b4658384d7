package devserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/hr-dashboard/internal/errors"
	"github.com/jrsteele09/hr-dashboard/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated user
	ContextKeyUser ContextKey = "user"
)

func UserFromContext(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(ContextKeyUser).(*users.User)
	return u, ok && u != nil
}

// bearerToken returns the credential of an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the bearer access token and loads its user
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := s.tokens.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, tokenErrorMessage(err))
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			user, err := s.repos.Users.GetByID(userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "user not found")
				return
			}
			if user.Blocked {
				writeError(w, http.StatusForbidden, "user is blocked")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequirePermission must be chained after RequireAuth
func (s *Server) RequirePermission(resource, action string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !user.HasPermission(resource, action) {
				writeError(w, http.StatusForbidden, "permission denied: "+users.Permission{Resource: resource, Action: action}.String())
				return
			}
			next(w, r)
		}
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, errors.ErrTokenRevoked):
		return "token revoked"
	default:
		return "invalid token"
	}
}
