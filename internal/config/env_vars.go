package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvVars maps the process environment. Every field has a default so the
// client and the development backend start with no configuration.
type EnvVars struct {
	Port    string `env:"PORT"      envDefault:"8080"`
	AppName string `env:"APP_NAME"  envDefault:"HR Dashboard"`
	Env     string `env:"ENV"       envDefault:"DEV"`
	Level   string `env:"LOG_LEVEL" envDefault:"info"`

	APIURL         string        `env:"API_URL"          envDefault:"http://localhost:8080"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT"     envDefault:"30s"`
	LogoutTimeout  time.Duration `env:"LOGOUT_TIMEOUT"   envDefault:"5s"`
	TokenStore     string        `env:"TOKEN_STORE"      envDefault:"file"`
	TokenFile      string        `env:"TOKEN_FILE"`
	RedisURL       string        `env:"REDIS_URL"        envDefault:"redis://localhost:6379/0"`
	TokenKeyPrefix string        `env:"TOKEN_KEY_PREFIX" envDefault:"hrdash:"`

	JWTSecret          string        `env:"JWT_SECRET"           envDefault:"dev-secret-change-me"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY"  envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	RefreshTokenLength int           `env:"REFRESH_TOKEN_LENGTH" envDefault:"32"`
	RevocationStore    string        `env:"REVOCATION_STORE"     envDefault:"memory"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

var _ EnvConfig = (*EnvVars)(nil)
var _ ClientConfig = (*EnvVars)(nil)
var _ TokenConfig = (*EnvVars)(nil)
var _ SeedConfig = (*EnvVars)(nil)

func (e *EnvVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (e *EnvVars) GetAppName() string {
	return e.AppName
}

func (e *EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e *EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

func (e *EnvVars) GetLogLevel() string {
	return e.Level
}

// GetAPIURL returns the dashboard backend base URL without a trailing slash
func (e *EnvVars) GetAPIURL() string {
	return strings.TrimRight(e.APIURL, "/")
}

func (e *EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

func (e *EnvVars) GetLogoutTimeout() time.Duration {
	return e.LogoutTimeout
}

func (e *EnvVars) GetTokenStore() string {
	return strings.ToLower(e.TokenStore)
}

// GetTokenFile defaults to ~/.hrctl/session.json
func (e *EnvVars) GetTokenFile() string {
	if e.TokenFile != "" {
		return e.TokenFile
	}
	return filepath.Join(HomeDir(), ".hrctl", "session.json")
}

func (e *EnvVars) GetRedisURL() string {
	return e.RedisURL
}

func (e *EnvVars) GetTokenKeyPrefix() string {
	return e.TokenKeyPrefix
}

func (e *EnvVars) GetJWTSecret() string {
	return e.JWTSecret
}

func (e *EnvVars) GetAccessTokenExpiry() time.Duration {
	return e.AccessTokenExpiry
}

func (e *EnvVars) GetRefreshTokenExpiry() time.Duration {
	return e.RefreshTokenExpiry
}

func (e *EnvVars) GetRefreshTokenLength() int {
	return e.RefreshTokenLength
}

// GetRevocationStore is memory or redis
func (e *EnvVars) GetRevocationStore() string {
	return strings.ToLower(e.RevocationStore)
}

func (e *EnvVars) GetAdminUsername() string {
	return e.AdminUsername
}

// GetAdminPassword is empty unless set; the backend then generates one
func (e *EnvVars) GetAdminPassword() string {
	return e.AdminPassword
}

// HomeDir falls back to the working directory when no home is available
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
