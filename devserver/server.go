// Package devserver is a development backend for the HR dashboard. It
// implements the auth endpoints and a read-only slice of the HR resources
// over in-memory repositories.
package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/hr-dashboard/internal/config"
	"github.com/jrsteele09/hr-dashboard/token"
	"github.com/jrsteele09/hr-dashboard/token/refresh"
	"github.com/jrsteele09/hr-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Repos struct {
	Users         users.UserRepo
	Roles         users.RoleRepo
	RefreshTokens refresh.Repo
}

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	tokens  *token.Manager
	data    *Dataset
	revoked token.RevokedTokenCache
	nowFunc func() time.Time
	logger  zerolog.Logger

	// AdminPassword is set when the administrator was created with a
	// generated password
	AdminPassword string
}

type Option func(*Server)

// WithRevokedTokenCache shares revocations through cache instead of memory
func WithRevokedTokenCache(cache token.RevokedTokenCache) Option {
	return func(s *Server) {
		s.revoked = cache
	}
}

func WithDataset(data *Dataset) Option {
	return func(s *Server) {
		s.data = data
	}
}

// WithClock sets the clock access tokens are issued and checked against
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(cfg config.Config, repos Repos, opts ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		repos:   repos,
		revoked: token.NewInMemoryRevokedTokenCache(),
		nowFunc: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.data == nil {
		s.data = DefaultDataset()
	}

	s.tokens = token.NewManager(
		token.NewHMACSigner(cfg.GetJWTSecret()),
		refresh.NewManager(repos.RefreshTokens, cfg),
		repos.Users,
		token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithRevokedTokenCache(s.revoked),
		token.WithNowFunc(s.nowFunc),
	)

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Tokens exposes the token manager, mainly for revocation cleanup
func (s *Server) Tokens() *token.Manager {
	return s.tokens
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) isDev() bool {
	return s.env == "DEV"
}

func (s *Server) logRoutes() {
	if !s.isDev() {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[ %s] %s", colourMethod(method), path)
}
