package session

import (
	"time"

	"github.com/rs/zerolog"
)

// LoginRoute is where an expired session sends the user
const LoginRoute = "/login"

const defaultLogoutTimeout = 5 * time.Second

// Navigator performs the forced redirect when the session expires
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

type Option func(*Manager)

func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = n
	}
}

// WithLogoutTimeout bounds the best-effort server side logout call
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.logoutTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}
