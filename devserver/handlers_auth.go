package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/hr-dashboard/internal/errors"
	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/rs/zerolog/log"
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TokenHandler exchanges form credentials for a token pair
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		if username == "" || password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		user, err := s.repos.Users.GetByUsername(username)
		if err != nil || !user.CheckPassword(password) {
			// Don't reveal whether the user exists
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		if user.Blocked {
			writeError(w, http.StatusForbidden, "user is blocked")
			return
		}

		pair, err := s.tokens.IssuePair(user)
		if err != nil {
			log.Err(err).Str("username", username).Msg("failed to issue tokens")
			writeError(w, http.StatusInternalServerError, "failed to issue tokens")
			return
		}
		updated := *user
		updated.LastLogin = users.NewTimestamp(time.Now())
		if err := s.repos.Users.Upsert(&updated); err != nil {
			log.Err(err).Str("username", username).Msg("failed to record last login")
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// RegisterHandler creates an account with the employee role. It does not
// log the user in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		name := strings.TrimSpace(r.PostFormValue("name"))

		if username == "" || password == "" || name == "" {
			writeError(w, http.StatusBadRequest, users.ErrMissingFields.Error())
			return
		}
		if err := users.ValidateUsername(username); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := users.ValidatePasswordStrength(password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := users.HashPassword(password)
		if err != nil {
			log.Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		role, err := s.repos.Roles.GetByName(RoleEmployee)
		if err != nil {
			log.Err(err).Str("role", RoleEmployee).Msg("default role missing")
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}

		user := &users.User{
			Username:     username,
			Name:         name,
			PasswordHash: hash,
			Roles:        []users.Role{role},
			DateJoined:   users.NewTimestamp(time.Now()),
		}
		if err := s.repos.Users.Create(user); err != nil {
			if errors.Is(err, users.ErrUsernameTaken) {
				writeError(w, http.StatusConflict, errors.ErrUsernameTaken.Error())
				return
			}
			log.Err(err).Msg("failed to create user")
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// RefreshHandler rotates a refresh token
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		refreshToken := r.PostFormValue("refresh_token")
		if refreshToken == "" {
			writeError(w, http.StatusBadRequest, "refresh_token is required")
			return
		}

		pair, err := s.tokens.Refresh(refreshToken)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, pair)
		case errors.Is(err, errors.ErrRefreshTokenExpired):
			writeError(w, http.StatusUnauthorized, "refresh token expired")
		case errors.Is(err, errors.ErrInvalidRefreshToken), errors.Is(err, errors.ErrUserBlocked):
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			log.Err(err).Msg("failed to refresh tokens")
			writeError(w, http.StatusInternalServerError, "failed to refresh tokens")
		}
	}
}

// LogoutHandler revokes the presented access token and the user's refresh
// token. An expired access token is still accepted.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := s.tokens.Revoke(raw); err != nil {
			if errors.Is(err, errors.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			log.Err(err).Msg("failed to revoke tokens")
			writeError(w, http.StatusInternalServerError, "failed to revoke tokens")
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// MeHandler returns the authenticated user's profile
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeData(w, user)
	}
}

// NotFoundHandler answers requests that match no route
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.ErrNotFound.Error())
	}
}
