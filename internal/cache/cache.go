// Package cache provides a small TTL cache for derived datasets.
package cache

import (
	"sync"
	"time"
)

// Observer is notified of lookups. *metrics.Metrics implements it.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry[T any] struct {
	val T
	exp time.Time
	seq uint64
}

// DefaultMaxEntries bounds a cache built with a non-positive size.
const DefaultMaxEntries = 256

// Cache maps string keys to values that expire ttl after they were set. It
// holds at most max entries; storing a new key into a full cache evicts the
// oldest entry.
type Cache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration
	max int
	seq uint64
	obs Observer
	now func() time.Time
}

// New returns an empty cache holding up to maxEntries values. obs may be nil.
func New[T any](ttl time.Duration, maxEntries int, obs Observer) *Cache[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache[T]{m: make(map[string]entry[T]), ttl: ttl, max: maxEntries, obs: obs, now: time.Now}
}

// Get returns the live value for key.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

// Set stores v under key and drops entries that have already expired. When
// the cache is full the least recently stored entry makes room.
func (c *Cache[T]) Set(key string, v T) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if _, exists := c.m[key]; !exists {
		for len(c.m) >= c.max {
			c.evictOldest()
		}
	}
	c.seq++
	c.m[key] = entry[T]{val: v, exp: now.Add(c.ttl), seq: c.seq}
}

func (c *Cache[T]) evictOldest() {
	var (
		oldest string
		seq    uint64
		found  bool
	)
	for k, e := range c.m {
		if !found || e.seq < seq {
			oldest, seq, found = k, e.seq, true
		}
	}
	delete(c.m, oldest)
}

// Delete removes key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
