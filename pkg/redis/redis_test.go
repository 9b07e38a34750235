package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/pkg/config"
)

type cachedPixel struct {
	ValCount []int `json:"valcount"`
}

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var dest cachedPixel
	found, err := cache.Get(ctx, "key", &dest)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", cachedPixel{ValCount: []int{1}}, time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_BreakerOpensOnUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewCache(Wrap(rdb), "test")
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	var dest cachedPixel
	for i := 0; i < breakerFailures; i++ {
		found, err := cache.Get(ctx, "k", &dest)
		assert.NoError(t, err, "unreachable redis reads as a miss")
		assert.False(t, found)
	}

	assert.Equal(t, gobreaker.StateOpen.String(), cache.BreakerState())
	assert.ErrorIs(t, cache.Set(ctx, "k", dest, time.Minute), gobreaker.ErrOpenState)
}

func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := NewCache(Wrap(rdb), "gem-test")
	ctx := context.Background()

	key := PixelKey("cfg", "input")
	require.NoError(t, cache.Set(ctx, key, cachedPixel{ValCount: []int{2, 0, 1}}, time.Minute))
	t.Cleanup(func() { _ = cache.Delete(ctx, key) })

	var got cachedPixel
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{2, 0, 1}, got.ValCount)
	assert.Equal(t, gobreaker.StateClosed.String(), cache.BreakerState())
}

func TestPixelKey(t *testing.T) {
	assert.Equal(t, "pixel:abc:def", PixelKey("abc", "def"))
}
