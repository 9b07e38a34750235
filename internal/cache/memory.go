package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonny/gem/backend/pkg/logger"
)

// entry is one cached value, kept as JSON so callers never share memory
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process pixel cache used when Redis is disabled
// ⭐ SSOT: 프로세스 내 캐싱은 이 구조체에서만
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
	logger     *logger.Logger
}

// NewMemoryCache creates a cache holding at most maxEntries values
func NewMemoryCache(maxEntries int, log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     log.WithField("module", "cache.memory"),
	}
}

// Get decodes the value under key into dest; expired entries are misses
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || !c.now().Before(e.expiresAt) {
		return false, nil
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key for ttl. A full cache drops expired entries
// first and skips the write if it is still full.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.cleanLocked()
		if len(c.entries) >= c.maxEntries {
			return nil
		}
	}

	c.entries[key] = entry{data: data, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Len returns the number of entries in cache, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale removes expired entries and returns how many were dropped
func (c *MemoryCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.cleanLocked()
	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale pixels from cache")
	}
	return count
}

func (c *MemoryCache) cleanLocked() int {
	now := c.now()
	count := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}
