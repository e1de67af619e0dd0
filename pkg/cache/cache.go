// Package cache provides a bounded in-process key-value cache with
// per-entry expiry.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached value and the instant it stops being valid.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a bounded TTL cache. Expired entries are purged lazily on
// read; when the size bound is exceeded the oldest-inserted key is
// evicted. Re-inserting a key moves it to the back of the eviction
// order. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	order      []K
	maxEntries int
	defaultTTL time.Duration

	now func() time.Time // overridable in tests
}

// New creates a cache holding at most maxEntries values, each expiring
// defaultTTL after insertion unless SetTTL is used.
func New[K comparable, V any](maxEntries int, defaultTTL time.Duration) *Cache[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the value for key. A missing or expired entry reports
// ok=false; an expired entry is removed as a side effect.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !e.expiresAt.After(c.now()) {
		c.remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.order = append(c.order, key)

	if len(c.entries) > c.maxEntries {
		c.remove(c.order[0])
	}
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
}

// Len returns the number of stored entries, including any that have
// expired but not yet been read.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) remove(key K) {
	delete(c.entries, key)
	c.removeFromOrder(key)
}

func (c *Cache[K, V]) removeFromOrder(key K) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
