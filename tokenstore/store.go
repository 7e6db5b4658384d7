// Package tokenstore persists the session's token pair and cached profile.
//
// A Store never returns errors: an unavailable or corrupt backend reads as
// "no session" and failed writes are logged.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenType    = "token_type"
	KeyUser         = "user"

	DefaultTokenType = "Bearer"

	defaultOpTimeout = 2 * time.Second
)

type Store struct {
	backend   Backend
	logger    zerolog.Logger
	opTimeout time.Duration
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithOpTimeout bounds each backend call
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.opTimeout = d
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		logger:    log.Logger,
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend exposes the storage so other client state can live next to the
// session. Clear only touches the session's own keys.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

// Save persists the token pair. A nil token clears the pair.
func (s *Store) Save(tok *oauth2.Token) {
	if tok == nil {
		s.clearTokens()
		return
	}
	ctx, cancel := s.ctx()
	defer cancel()

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	for _, kv := range [][2]string{
		{KeyTokenType, tokenType},
		{KeyRefreshToken, tok.RefreshToken},
		{KeyAccessToken, tok.AccessToken},
	} {
		if err := s.backend.Set(ctx, kv[0], kv[1]); err != nil {
			s.logger.Err(err).Str("key", kv[0]).Msg("token store write failed")
			return
		}
	}
}

// Load returns the stored pair, or nil unless both tokens are present
func (s *Store) Load() *oauth2.Token {
	ctx, cancel := s.ctx()
	defer cancel()

	access := s.get(ctx, KeyAccessToken)
	refresh := s.get(ctx, KeyRefreshToken)
	if access == "" || refresh == "" {
		return nil
	}
	tokenType := s.get(ctx, KeyTokenType)
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: tokenType}
}

// HasPartial reports whether exactly one of the two tokens is stored
func (s *Store) HasPartial() bool {
	ctx, cancel := s.ctx()
	defer cancel()
	return (s.get(ctx, KeyAccessToken) == "") != (s.get(ctx, KeyRefreshToken) == "")
}

// Clear removes tokens and the cached profile
func (s *Store) Clear() {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyTokenType, KeyUser); err != nil {
		s.logger.Err(err).Msg("token store clear failed")
	}
}

func (s *Store) clearTokens() {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyTokenType); err != nil {
		s.logger.Err(err).Msg("token store clear failed")
	}
}

// SaveProfile caches the user as JSON for display before bootstrap finishes
func (s *Store) SaveProfile(user *users.User) {
	ctx, cancel := s.ctx()
	defer cancel()

	if user == nil {
		if err := s.backend.Delete(ctx, KeyUser); err != nil {
			s.logger.Err(err).Msg("token store profile delete failed")
		}
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Err(err).Msg("encode cached profile")
		return
	}
	if err := s.backend.Set(ctx, KeyUser, string(data)); err != nil {
		s.logger.Err(err).Str("key", KeyUser).Msg("token store write failed")
	}
}

func (s *Store) LoadProfile() *users.User {
	ctx, cancel := s.ctx()
	defer cancel()

	data := s.get(ctx, KeyUser)
	if data == "" {
		return nil
	}
	var user users.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable cached profile")
		return nil
	}
	return &user
}

func (s *Store) get(ctx context.Context, key string) string {
	v, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("token store read failed, treating as absent")
		}
		return ""
	}
	return strings.TrimSpace(v)
}
