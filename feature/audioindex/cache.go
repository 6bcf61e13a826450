package audioindex

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// BuildFunc produces a fresh index.
type BuildFunc func(ctx context.Context) (*Index, error)

type cachedIndex struct {
	index *Index
	built time.Time
}

// Cache holds built indices for a TTL, keyed by source. Concurrent misses for the
// same key share a single build.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*cachedIndex
	sf      singleflight.Group
}

// NewCache creates a cache. A zero TTL disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]*cachedIndex),
	}
}

func (c *Cache) isExpired(e *cachedIndex) bool {
	if c.ttl == 0 {
		return true
	}
	return time.Since(e.built) > c.ttl
}

// GetOrBuild returns the cached index for key, building it when missing or expired.
func (c *Cache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*Index, error) {
	c.mu.RLock()
	cached, exists := c.entries[key]
	c.mu.RUnlock()
	if exists && !c.isExpired(cached) {
		return cached.index, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		cached, exists := c.entries[key]
		c.mu.RUnlock()
		if exists && !c.isExpired(cached) {
			return cached.index, nil
		}

		ix, err := build(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = &cachedIndex{index: ix, built: time.Now()}
		c.mu.Unlock()
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Index), nil
}

// Invalidate drops the cached index for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
