package geospatial

import (
	"sync"
	"sync/atomic"
	"time"
)

// BoundaryCache is a concurrent-safe LRU cache of parsed county boundary
// sets with TTL expiration.
type BoundaryCache struct {
	mu         sync.Mutex
	entries    map[string]*boundaryCacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type boundaryCacheEntry struct {
	set       *BoundarySet
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewBoundaryCache creates a cache holding at most maxEntries counties.
// A non-positive maxEntries returns nil, which disables caching.
func NewBoundaryCache(maxEntries int, ttl time.Duration) *BoundaryCache {
	if maxEntries <= 0 {
		return nil
	}
	return &BoundaryCache{
		entries:    make(map[string]*boundaryCacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached set for fips, or nil on miss or expiration.
func (c *BoundaryCache) Get(fips string) *BoundarySet {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fips]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, fips)
		c.removeFromOrder(fips)
		c.misses.Add(1)
		return nil
	}

	// Move to back (most recently used).
	c.removeFromOrder(fips)
	c.order = append(c.order, fips)
	c.hits.Add(1)
	return entry.set
}

// Put stores a set, evicting the oldest entry if at capacity.
func (c *BoundaryCache) Put(set *BoundarySet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[set.FIPS]; ok {
		c.entries[set.FIPS] = &boundaryCacheEntry{set: set, createdAt: time.Now()}
		c.removeFromOrder(set.FIPS)
		c.order = append(c.order, set.FIPS)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[set.FIPS] = &boundaryCacheEntry{set: set, createdAt: time.Now()}
	c.order = append(c.order, set.FIPS)
}

// Stats returns cache performance statistics.
func (c *BoundaryCache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

// removeFromOrder removes a key from the LRU order slice.
func (c *BoundaryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
