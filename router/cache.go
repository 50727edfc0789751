package router

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 30 * time.Second
)

// CacheConfig configures the routing decision cache.
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

type cachedDecision struct {
	decision Decision
	storedAt time.Time
}

// Cache is a bounded LRU with per-entry TTL keyed on (agent type, serialized
// context subset). It is a best-effort speed optimization: clearing it must
// never change a routing decision, only whether it is recomputed.
type Cache struct {
	lru    *lru.Cache[string, cachedDecision]
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCache(cfg CacheConfig) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	// lru.New only errors on a non-positive size, which is guarded above.
	l, _ := lru.New[string, cachedDecision](cfg.MaxEntries)
	return &Cache{lru: l, ttl: cfg.TTL, now: time.Now}
}

// Get returns a cached decision, treating entries past their TTL as misses
// and evicting them.
func (c *Cache) Get(agentType string, ctx Context, largeTask bool) (Decision, bool) {
	key := cacheKey(agentType, ctx, largeTask)
	entry, ok := c.lru.Get(key)
	if ok && c.now().Sub(entry.storedAt) < c.ttl {
		c.hits.Add(1)
		return entry.decision, true
	}
	if ok {
		c.lru.Remove(key)
	}
	c.misses.Add(1)
	return Decision{}, false
}

// Set stores a decision, evicting the least-recently-used entry at capacity.
func (c *Cache) Set(agentType string, ctx Context, largeTask bool, d Decision) {
	c.lru.Add(cacheKey(agentType, ctx, largeTask), cachedDecision{decision: d, storedAt: c.now()})
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}

// Prune sweeps expired entries proactively and returns how many were
// removed.
func (c *Cache) Prune() int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if entry, ok := c.lru.Peek(key); ok && c.now().Sub(entry.storedAt) >= c.ttl {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats reports hit/miss counts since construction.
func (c *Cache) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := CacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
