// Package memory provides an in-memory cache with per-entry expiry.
// It is local to one process.
package memory

import (
	"sync"
	"time"
)

// Config contains cache configuration.
type Config struct {
	// TTL is how long an entry lives after its last Set. Zero keeps
	// entries until they are deleted.
	TTL time.Duration

	// CleanupInterval is how often expired entries are swept. Zero disables
	// the background sweep; expired entries are still never returned.
	CleanupInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache stores values of type V by string key.
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]*cacheItem[V]
	ttl     time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	stopped bool
}

// cacheItem represents a single cached item.
type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
	noExpiry  bool
}

func (i *cacheItem[V]) isExpired(now time.Time) bool {
	if i.noExpiry {
		return false
	}
	return now.After(i.expiresAt)
}

// NewCache creates a new in-memory cache.
func NewCache[V any](cfg Config) *Cache[V] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	c := &Cache[V]{
		items:  make(map[string]*cacheItem[V]),
		ttl:    cfg.TTL,
		now:    now,
		stopCh: make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanupLoop(cfg.CleanupInterval)
	}

	return c
}

// cleanupLoop periodically removes expired items.
func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Cleanup removes expired items and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

// Stop stops the cleanup goroutine.
func (c *Cache[V]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		close(c.stopCh)
		c.stopped = true
	}
}

// Get retrieves a value by key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || item.isExpired(c.now()) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set stores a value and restarts its TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[V]{value: value}
	if c.ttl > 0 {
		item.expiresAt = c.now().Add(c.ttl)
	} else {
		item.noExpiry = true
	}
	c.items[key] = item
}

// Delete removes a value by key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, item := range c.items {
		if !item.isExpired(now) {
			n++
		}
	}
	return n
}
