package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
)

const keyPrefix = "hub:"

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = errors.New("cache is disabled")
)

// Cache wraps Redis client. A nil *Cache is valid and behaves as an
// always-missing cache.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a new Redis cache client; it returns nil when the cache is disabled
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		logger: logging.WithComponent("cache"),
	}
}

// HashKey builds a fixed-length key from arbitrary parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) namespaceKey(key string) string {
	return keyPrefix + key
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if !c.enabled() {
		return "", ErrCacheDisabled
	}
	return c.client.Get(ctx, c.namespaceKey(key)).Result()
}

// Set sets a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Set(ctx, c.namespaceKey(key), value, ttl).Err()
}

// GetJSON decodes a cached value into dest. It reports false on a miss, when
// the cache is disabled, and when Redis is unreachable; the caller then falls
// back to the database.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}

	raw, err := c.client.Get(ctx, c.namespaceKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores value encoded as JSON. Failures are logged only.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.enabled() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache entry unencodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.namespaceKey(key), raw, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = c.namespaceKey(key)
	}
	return c.client.Del(ctx, namespaced...).Err()
}

// Invalidate removes keys and logs instead of failing
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Generation reads a counter written by Bump. It is 0 when the counter was
// never bumped, the cache is disabled or Redis is unreachable.
func (c *Cache) Generation(ctx context.Context, key string) int64 {
	if !c.enabled() {
		return 0
	}

	gen, err := c.client.Get(ctx, c.namespaceKey(key)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		}
		return 0
	}
	return gen
}

// Bump increments generation counters so that every entry keyed on their
// previous value is never read again. Failures are logged only.
func (c *Cache) Bump(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, c.namespaceKey(key))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache generation bump failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Exists checks if a key exists
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.enabled() {
		return false, ErrCacheDisabled
	}
	count, err := c.client.Exists(ctx, c.namespaceKey(key)).Result()
	return count > 0, err
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
