package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
)

var _ Backend = (*RedisBackend)(nil)

// RedisBackend stores entries as plain string keys under a prefix, so
// several dashboards can share one redis database.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisBackend)

// WithTTL expires stored entries; zero keeps them until cleared
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisBackend) {
		r.ttl = ttl
	}
}

func NewRedisBackend(client redis.Cmdable, prefix string, opts ...RedisOption) *RedisBackend {
	r := &RedisBackend{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisClient parses a redis URL and returns a client with short timeouts.
// It does not dial; the first command does.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: invalid redis URL: %w", err)
	}
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
	return redis.NewClient(options), nil
}

func (r *RedisBackend) key(k string) string {
	return r.prefix + k
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis delete: %w", err)
	}
	return nil
}
