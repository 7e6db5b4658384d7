package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	ClientConfig
	TokenConfig
	CorsConfig
	SeedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

// ClientConfig configures the dashboard client side of the module
type ClientConfig interface {
	GetAPIURL() string
	GetHTTPTimeout() time.Duration
	GetLogoutTimeout() time.Duration
	GetTokenStore() string
	GetTokenFile() string
	GetRedisURL() string
	GetTokenKeyPrefix() string
}

// TokenConfig configures token issuing in the development backend
type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRevocationStore() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// SeedConfig holds the administrator account created on an empty backend
type SeedConfig interface {
	GetAdminUsername() string
	GetAdminPassword() string
}

type mainConfig struct {
	*EnvVars
	Cors
}

// New parses the environment into a Config
func New() (Config, error) {
	vars, err := Parse()
	if err != nil {
		return nil, err
	}
	return FromVars(vars), nil
}

// Parse reads the environment variables so callers can layer overrides
// before building a Config
func Parse() (EnvVars, error) {
	var vars EnvVars
	if err := env.Parse(&vars); err != nil {
		return EnvVars{}, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return vars, nil
}

// FromVars builds a Config from already populated variables. Tests use it
// to avoid touching the process environment.
func FromVars(vars EnvVars) Config {
	return mainConfig{EnvVars: &vars, Cors: Cors{origins: parseOrigins(vars.AllowedOrigins)}}
}

// Defaults returns the variables with every envDefault applied
func Defaults() EnvVars {
	var vars EnvVars
	_ = env.ParseWithOptions(&vars, env.Options{Environment: map[string]string{}})
	return vars
}
