package tokenstore

import (
	"fmt"

	"github.com/jrsteele09/hr-dashboard/internal/config"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Open builds the backend selected by the client configuration. The returned
// close function releases the redis connection pool and is a no-op otherwise.
func Open(cfg config.ClientConfig, opts ...Option) (*Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetTokenStore() {
	case BackendMemory:
		return New(NewMemoryBackend(), opts...), noop, nil
	case BackendFile, "":
		return New(NewFileBackend(cfg.GetTokenFile()), opts...), noop, nil
	case BackendRedis:
		client, err := NewRedisClient(cfg.GetRedisURL())
		if err != nil {
			return nil, nil, err
		}
		return New(NewRedisBackend(client, cfg.GetTokenKeyPrefix()), opts...), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("tokenstore: unknown backend %q", cfg.GetTokenStore())
	}
}
