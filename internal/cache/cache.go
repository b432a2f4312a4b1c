// Package cache provides a small thread-safe in-memory TTL cache, used to
// avoid re-fetching issue metadata on repeated tool calls.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	expiration time.Time
}

// TTL is a thread-safe in-memory cache with per-entry expiration.
type TTL[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
}

// New creates an empty cache.
func New[V any]() *TTL[V] {
	return &TTL[V]{items: make(map[string]entry[V])}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiration) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the given TTL.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{value: value, expiration: time.Now().Add(ttl)}
}

// Delete removes a key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry[V])
}
