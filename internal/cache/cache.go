package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL map.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry[V]

	// 0 means unbounded
	maxEntries int
	lastSweep  time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry[V]),
	}
}

// WithMaxEntries bounds the cache; when full, the entry closest to expiry is evicted.
func (c *Cache[V]) WithMaxEntries(n int) *Cache[V] {
	c.maxEntries = n
	return c
}

// WithClock swaps the time source, for tests.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// only drop it if nobody refreshed it meanwhile
		if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.SetTTL(key, val, c.ttl)
}

func (c *Cache[V]) SetTTL(key string, val V, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// entries nobody reads again would otherwise live forever
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweep(now)
		c.lastSweep = now
	}

	if _, exists := c.m[key]; !exists && c.maxEntries > 0 && len(c.m) >= c.maxEntries {
		c.sweep(now)
		if len(c.m) >= c.maxEntries {
			c.evictSoonest()
		}
	}

	c.m[key] = entry[V]{val: val, exp: now.Add(ttl)}
}

// sweep drops expired entries. Caller holds mu.
func (c *Cache[V]) sweep(now time.Time) {
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
}

// evictSoonest drops the entry that expires first. Caller holds mu.
func (c *Cache[V]) evictSoonest() {
	var victim string
	var soonest time.Time

	for k, e := range c.m {
		if victim == "" || e.exp.Before(soonest) {
			victim, soonest = k, e.exp
		}
	}
	delete(c.m, victim)
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
