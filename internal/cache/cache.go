package cache

import (
	"fmt"
	"sync"
	"time"
)

// item is one cached snapshot payload with its expiry.
type item struct {
	data      []byte
	expiresAt time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// SnapshotCache is a thread-safe TTL cache for serialized organization
// snapshots. Keys bind the org to the size of its result set, so any new
// assessment naturally invalidates the cached snapshot.
type SnapshotCache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
}

// NewSnapshotCache creates a cache with the given TTL and starts the
// background sweeper.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	c := &SnapshotCache{
		items: make(map[string]*item),
		ttl:   ttl,
	}
	go c.cleanup()
	return c
}

// Key derives the cache key for an organization's snapshot at a given
// result-set size.
func Key(orgID string, resultCount int) string {
	return fmt.Sprintf("snapshot:%s:%d", orgID, resultCount)
}

func (c *SnapshotCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, it := range c.items {
			if it.expired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Get retrieves a cached snapshot payload.
func (c *SnapshotCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[key]
	if !exists || it.expired() {
		return nil, false
	}
	return it.data, true
}

// Set stores a snapshot payload under the key.
func (c *SnapshotCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &item{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes all cached snapshots for the organization regardless
// of result-set size.
func (c *SnapshotCache) Invalidate(orgID string) {
	prefix := "snapshot:" + orgID + ":"
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
}

// Size returns the number of cached entries.
func (c *SnapshotCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
