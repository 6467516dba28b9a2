package stackfs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/absfs/unifs"
)

// Cache remembers where paths resolved in the stack, and which paths did
// not resolve. It is disabled unless one of the cache options is given.
type Cache struct {
	statCache     map[string]*statCacheEntry
	negativeCache map[string]*negativeCacheEntry
	mu            sync.RWMutex
	statTTL       time.Duration
	negativeTTL   time.Duration
	maxEntries    int
	enabled       bool
	now           func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type statCacheEntry struct {
	md      unifs.Metadata
	layer   int
	expires time.Time
}

type negativeCacheEntry struct {
	expires time.Time
}

func newCache(enabled bool, statTTL, negativeTTL time.Duration, maxEntries int) *Cache {
	if !enabled {
		return &Cache{}
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		statCache:     make(map[string]*statCacheEntry),
		negativeCache: make(map[string]*negativeCacheEntry),
		statTTL:       statTTL,
		negativeTTL:   negativeTTL,
		maxEntries:    maxEntries,
		enabled:       true,
		now:           time.Now,
	}
}

// get returns a live cached lookup of path. negative is set when path is
// known not to resolve.
func (c *Cache) get(path string) (md unifs.Metadata, layer int, negative, ok bool) {
	if !c.enabled {
		return unifs.Metadata{}, -1, false, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	if entry, found := c.statCache[path]; found && !now.After(entry.expires) {
		c.hits.Add(1)
		return entry.md, entry.layer, false, true
	}
	if entry, found := c.negativeCache[path]; found && !now.After(entry.expires) {
		c.hits.Add(1)
		return unifs.Metadata{}, -1, true, true
	}
	c.misses.Add(1)
	return unifs.Metadata{}, -1, false, false
}

func (c *Cache) putStat(path string, md unifs.Metadata, layer int) {
	if !c.enabled || c.statTTL <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.statCache[path]; !ok && len(c.statCache) >= c.maxEntries {
		evictOldest(c.statCache, func(e *statCacheEntry) time.Time { return e.expires })
	}
	delete(c.negativeCache, path)
	c.statCache[path] = &statCacheEntry{
		md:      md,
		layer:   layer,
		expires: c.now().Add(c.statTTL),
	}
}

func (c *Cache) putNegative(path string) {
	if !c.enabled || c.negativeTTL <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.negativeCache[path]; !ok && len(c.negativeCache) >= c.maxEntries {
		evictOldest(c.negativeCache, func(e *negativeCacheEntry) time.Time { return e.expires })
	}
	delete(c.statCache, path)
	c.negativeCache[path] = &negativeCacheEntry{
		expires: c.now().Add(c.negativeTTL),
	}
}

func (c *Cache) invalidate(path string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.statCache, path)
	delete(c.negativeCache, path)
}

// invalidateTree removes path and every entry below it.
func (c *Cache) invalidateTree(path string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.statCache {
		if unifs.HasPrefix(p, path) {
			delete(c.statCache, p)
		}
	}
	for p := range c.negativeCache {
		if unifs.HasPrefix(p, path) {
			delete(c.negativeCache, p)
		}
	}
}

func (c *Cache) clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.statCache)
	clear(c.negativeCache)
}

// evictOldest removes the entry closest to expiry.
func evictOldest[E any](m map[string]E, expires func(E) time.Time) {
	var oldestPath string
	var oldestTime time.Time
	for path, entry := range m {
		if t := expires(entry); oldestPath == "" || t.Before(oldestTime) {
			oldestPath = path
			oldestTime = t
		}
	}
	if oldestPath != "" {
		delete(m, oldestPath)
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	if !c.enabled {
		return CacheStats{Enabled: false}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Enabled:           true,
		StatCacheSize:     len(c.statCache),
		NegativeCacheSize: len(c.negativeCache),
		MaxEntries:        c.maxEntries,
		StatTTL:           c.statTTL,
		NegativeTTL:       c.negativeTTL,
		Hits:              c.hits.Load(),
		Misses:            c.misses.Load(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Enabled           bool
	StatCacheSize     int
	NegativeCacheSize int
	MaxEntries        int
	StatTTL           time.Duration
	NegativeTTL       time.Duration
	// Hits counts lookups answered from the cache, negative ones included.
	Hits int64
	// Misses counts lookups that had to consult the layers.
	Misses int64
}
