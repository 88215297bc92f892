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

	"github.com/moltbook/api/pkg/config"
	"github.com/moltbook/api/pkg/logging"
)

const keyPrefix = "moltbook:"

var (
	// ErrCacheDisabled is returned when cache operations are attempted on a nil cache
	ErrCacheDisabled = fmt.Errorf("cache is disabled")
	// ErrCacheMiss is returned when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")
)

// Cache wraps a Redis client, falling back to an in-process LRU when Redis
// is not configured
type Cache struct {
	client *redis.Client
	local  *localStore
	ctx    context.Context
}

// New creates a cache. Without a Redis URL it returns an in-process cache.
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled, using in-process cache")
		return NewLocal(cfg.LocalSize)
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

	return &Cache{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// NewLocal creates an in-process cache holding at most size entries
func NewLocal(size int) (*Cache, error) {
	store, err := newLocalStore(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	return &Cache{local: store, ctx: context.Background()}, nil
}

// HashKey builds a fixed-length key from its parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) namespaceKey(key string) string {
	return keyPrefix + key
}

func (c *Cache) disabled() bool {
	return c == nil || (c.client == nil && c.local == nil)
}

// Get retrieves a value from cache
func (c *Cache) Get(key string) (string, error) {
	if c.disabled() {
		return "", ErrCacheDisabled
	}
	key = c.namespaceKey(key)
	if c.local != nil {
		return c.local.get(key)
	}
	val, err := c.client.Get(c.ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return val, err
}

// Set sets a value in cache with TTL. A zero TTL keeps the key until evicted.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	if c.disabled() {
		return ErrCacheDisabled
	}
	key = c.namespaceKey(key)
	if c.local != nil {
		c.local.set(key, toString(value), ttl)
		return nil
	}
	return c.client.Set(c.ctx, key, value, ttl).Err()
}

// GetJSON retrieves a value and decodes it into dest
func (c *Cache) GetJSON(key string, dest interface{}) error {
	val, err := c.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON encodes value as JSON and stores it with TTL
func (c *Cache) SetJSON(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(key, string(data), ttl)
}

// Incr increments a counter. The window starts with the first increment;
// a zero window never expires, and the local store never evicts it.
func (c *Cache) Incr(key string, window time.Duration) (int64, error) {
	if c.disabled() {
		return 0, ErrCacheDisabled
	}
	key = c.namespaceKey(key)
	if c.local != nil {
		return c.local.incr(key, window), nil
	}

	n, err := c.client.Incr(c.ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && window > 0 {
		if err := c.client.Expire(c.ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Delete removes a key from cache
func (c *Cache) Delete(key string) error {
	if c.disabled() {
		return ErrCacheDisabled
	}
	key = c.namespaceKey(key)
	if c.local != nil {
		c.local.remove(key)
		return nil
	}
	return c.client.Del(c.ctx, key).Err()
}

// Exists checks if a key exists
func (c *Cache) Exists(key string) (bool, error) {
	if c.disabled() {
		return false, ErrCacheDisabled
	}
	key = c.namespaceKey(key)
	if c.local != nil {
		_, err := c.local.get(key)
		return err == nil, nil
	}
	count, err := c.client.Exists(c.ctx, key).Result()
	return count > 0, err
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health. The in-process cache is always healthy.
func (c *Cache) Health(ctx context.Context) error {
	if c.disabled() {
		return ErrCacheDisabled
	}
	if c.local != nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
