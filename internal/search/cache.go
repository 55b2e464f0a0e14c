package search

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores marshaled result lists keyed by provider+type+query so
// repeated lookups within the TTL window skip the network entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, payload string)
}

const (
	cacheTTL        = 2 * time.Hour
	cacheMaxEntries = 512
)

type memoryCacheEntry struct {
	storedAt time.Time
	payload  string
}

// MemoryCache is the in-process default: TTL-bounded and size-bounded, with
// stale entries pruned on overflow.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.storedAt) > cacheTTL {
		return "", false
	}
	return entry.payload, true
}

func (c *MemoryCache) Set(_ context.Context, key string, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = memoryCacheEntry{storedAt: now, payload: payload}

	if len(c.entries) <= cacheMaxEntries {
		return
	}
	cutoff := now.Add(-cacheTTL)
	for k, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) <= cacheMaxEntries {
			break
		}
		delete(c.entries, k)
	}
}

// RedisCache shares the result cache between instances.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "mediatrack:search:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	payload, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return payload, true
}

func (c *RedisCache) Set(ctx context.Context, key string, payload string) {
	// Cache writes are best effort; a failed write only costs a re-fetch.
	_ = c.client.Set(ctx, c.prefix+key, payload, cacheTTL).Err()
}
