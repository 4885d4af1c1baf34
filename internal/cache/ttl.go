// Package cache provides a small in-memory map with per-entry expiry.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// sweepInterval bounds how often Set scans for expired entries.
const sweepInterval = time.Minute

// TTL is a concurrency-safe map whose entries expire after a fixed lifetime.
// Expired entries are dropped when they are next read, and Set sweeps all
// expired entries at most once per sweepInterval.
type TTL[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]entry[V]
	now       func() time.Time
	nextSweep time.Time
}

func NewTTL[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the value stored under key if it has not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweep(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

func (c *TTL[K, V]) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.nextSweep = now.Add(sweepInterval)
}

// Len returns the number of stored entries, including expired ones not yet
// dropped.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
