package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jrsteele09/hr-dashboard/internal/config"
	"gopkg.in/yaml.v3"
)

// Profile is the optional per-user settings file. Set keys override the
// environment.
type Profile struct {
	APIURL     string `yaml:"api_url,omitempty"`
	TokenStore string `yaml:"token_store,omitempty"`
	TokenFile  string `yaml:"token_file,omitempty"`
	RedisURL   string `yaml:"redis_url,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
}

// DefaultProfilePath is ~/.hrctl/config.yaml
func DefaultProfilePath() string {
	return filepath.Join(config.HomeDir(), ".hrctl", "config.yaml")
}

// LoadProfile reads path. A missing file is an empty profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// Apply copies the profile's set keys over vars
func (p Profile) Apply(vars *config.EnvVars) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&vars.APIURL, p.APIURL)
	set(&vars.TokenStore, p.TokenStore)
	set(&vars.TokenFile, p.TokenFile)
	set(&vars.RedisURL, p.RedisURL)
	set(&vars.Level, p.LogLevel)
}
