package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Breaker trips after this many consecutive Redis failures and probes
// again after breakerTimeout
const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// Cache stores JSON values under "<prefix>:cache:<key>".
// Redis errors open a circuit breaker; while open, Get misses and Set
// is skipped so callers fall back to computing.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client  *Client
	prefix  string
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	settings := gobreaker.Settings{
		Name:    prefix + "-redis",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	}

	return &Cache{
		client:  client,
		prefix:  prefix,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get decodes a cached value into dest and reports whether it was found
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Redis().Get(ctx, c.key(key)).Bytes()
	})
	if err != nil {
		// miss, Redis failure or open breaker: all read as "not cached"
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
	})
	return err
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// BreakerState reports the circuit state (closed, half-open, open)
func (c *Cache) BreakerState() string {
	return c.breaker.State().String()
}

// TTLPixel is the default lifetime of a cached pixel composite
const TTLPixel = 1 * time.Hour

// PixelKey builds the cache key of one pixel composite: the same config
// and the same input always produce the same output
func PixelKey(configHash, inputHash string) string {
	return fmt.Sprintf("pixel:%s:%s", configHash, inputHash)
}
