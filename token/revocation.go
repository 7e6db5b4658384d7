package token

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RevokedTokenCache remembers access tokens logged out before they expire
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup() // Remove expired entries
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	nowFunc func() time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *InMemoryRevokedTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.revoked)
}

func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}

// RedisRevokedTokenCache shares revocations between backend instances. Each
// entry expires with the token it revokes, so Cleanup has nothing to do.
type RedisRevokedTokenCache struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
}

func NewRedisRevokedTokenCache(client redis.Cmdable, prefix string) *RedisRevokedTokenCache {
	return &RedisRevokedTokenCache{client: client, prefix: prefix + "revoked:", timeout: 2 * time.Second}
}

func (c *RedisRevokedTokenCache) Add(jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+jti, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "RedisRevokedTokenCache.Add")
	}
	return nil
}

// IsRevoked treats an unreachable redis as revoked
func (c *RedisRevokedTokenCache) IsRevoked(jti string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	n, err := c.client.Exists(ctx, c.prefix+jti).Result()
	if err != nil {
		return true
	}
	return n > 0
}

func (c *RedisRevokedTokenCache) Cleanup() {}
