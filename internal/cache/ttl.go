// Package cache provides small in-memory TTL caches for hot-path lookups.
package cache

import (
	"sync"
	"time"

	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
)

// Cache is a TTL keyed store. Staleness is checked on read; expired
// entries are dropped lazily.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Len() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
	clock   clock.Clock
}

// NewTTLCache returns a Cache backed by the system clock.
func NewTTLCache[K comparable, V any]() Cache[K, V] {
	return NewTTLCacheWithClock[K, V](clock.SystemClock{})
}

// NewTTLCacheWithClock returns a Cache whose staleness checks use clk.
func NewTTLCacheWithClock[K comparable, V any](clk clock.Clock) Cache[K, V] {
	return &ttlCache[K, V]{
		entries: make(map[K]entry[V]),
		clock:   clk,
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *ttlCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
