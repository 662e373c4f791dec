package cover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by a Cache when no entry exists for a key.
var ErrCacheMiss = errors.New("cover cache miss")

// Cache stores resolved cover URLs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Lookup is satisfied by *Resolver and *CachedResolver.
type Lookup interface {
	Resolve(ctx context.Context, title, isbn string) string
}

// CachedResolver remembers successful lookups. Misses are not cached so a
// cover added upstream later is still picked up.
type CachedResolver struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedResolver(next Lookup, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedResolver) Resolve(ctx context.Context, title, isbn string) string {
	key := CacheKey(title, isbn)
	if key == "" {
		return c.next.Resolve(ctx, title, isbn)
	}

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		return cached
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("cover cache read failed", zap.String("key", key), zap.Error(err))
	}

	u := c.next.Resolve(ctx, title, isbn)
	if u == "" {
		return ""
	}
	if err := c.cache.Set(ctx, key, u, c.ttl); err != nil {
		c.logger.Warn("cover cache write failed", zap.String("key", key), zap.Error(err))
	}
	return u
}

// CacheKey prefers the ISBN since it identifies an edition exactly.
func CacheKey(title, isbn string) string {
	if isbn = strings.TrimSpace(isbn); isbn != "" {
		return "cover:isbn:" + isbn
	}
	if title = strings.ToLower(strings.TrimSpace(title)); title != "" {
		return "cover:title:" + title
	}
	return ""
}

// RedisCache is a Cache backed by plain redis string keys.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient provides a ready to use redis client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: unexpected reply %q", pong)
	}
	return client, nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := rc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (rc *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}
