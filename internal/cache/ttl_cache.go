// Package cache provides the bounded in-process TTL/LRU cache that fronts
// external market-data lookups.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is a cached value with its absolute expiry. Owned exclusively by the
// cache; never handed out.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is a mutex-guarded LRU cache with per-entry TTL. Expired entries are
// removed lazily on access; Cleanup sweeps the rest. All operations are
// single critical sections so concurrent request flows cannot corrupt the
// recency order or double-evict.
type Cache[V any] struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration
	order      *list.List // front = most recently used
	items      map[string]*list.Element

	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
}

// New creates a cache bounded to maxSize entries with the given default TTL.
func New[V any](maxSize int, defaultTTL time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[V]{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns the live value for key. Expired entries count as misses and
// are removed; a hit refreshes the entry's recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if time.Now().After(ent.expiresAt) {
		c.removeLocked(el)
		c.misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// GetStale returns the value for key even if it has expired, without
// touching recency or counters. Used to serve degraded responses when the
// upstream source is down.
func (c *Cache[V]) GetStale(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return el.Value.(*entry[V]).value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL. An existing key is
// re-inserted at the most-recently-used position; at capacity the single
// least-recently-used entry is evicted first.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	} else if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
			c.evictions++
		}
	}

	ent := &entry[V]{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	c.items[key] = c.order.PushFront(ent)
	c.sets++
}

// Cleanup removes all expired entries and returns how many were removed.
// Meant to be driven by a timer owned by the composition root.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[V]).expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len returns the current number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	accesses := c.hits + c.misses
	rate := 0.0
	if accesses > 0 {
		rate = float64(c.hits) / float64(accesses)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		Size:      c.order.Len(),
		HitRate:   rate,
	}
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
