// Package cache implements the TTL-bounded, bounded-entry response cache
//: a key→response store with hit/miss counters and an
// approximated, sampled-eviction LRU that deliberately trades strict
// recency tracking for low write contention.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
)

// Key identifies a cache entry. Equality is case-insensitive on Name; the
// cache normalizes Name on every call so callers never need to.
type Key struct {
	Name string
	Type dnswire.RecordType
}

func normKey(k Key) Key {
	return Key{Name: dnswire.NormalizeName(k.Name), Type: k.Type}
}

// Config holds the cache's two tunables.
type Config struct {
	DefaultTTL time.Duration
	MaxEntries int
}

type entry struct {
	response     dnswire.Response
	createdAt    time.Time
	expiresAt    time.Time
	lastAccessed atomic.Int64 // unix nanos
}

// Cache is the resolver's response cache. The zero value is not usable;
// construct with New.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	cfg     Config

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New constructs a Cache with the given configuration.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 300 * time.Second
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &Cache{
		entries: make(map[Key]*entry),
		cfg:     cfg,
	}
}

// Reconfigure updates the default TTL / max entries used by subsequent
// Set calls, without touching existing entries.
func (c *Cache) Reconfigure(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.DefaultTTL > 0 {
		c.cfg.DefaultTTL = cfg.DefaultTTL
	}
	if cfg.MaxEntries > 0 {
		c.cfg.MaxEntries = cfg.MaxEntries
	}
}

// Get returns a clone of the stored response iff an entry exists and has
// not expired. It touches last_accessed on success.
func (c *Cache) Get(key Key) (dnswire.Response, bool) {
	key = normKey(key)
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		c.misses.Add(1)
		return dnswire.Response{}, false
	}
	now := time.Now()
	if now.After(e.expiresAt) {
		c.misses.Add(1)
		return dnswire.Response{}, false
	}
	e.lastAccessed.Store(now.UnixNano())
	c.hits.Add(1)
	return cloneResponse(e.response), true
}

// Set inserts resp under key with ttl = default_ttl. If the cache is at
// or above max_entries, the sampled-eviction routine runs first: scan
// up to five entries (map iteration order stands in for an unspecified
// order — see DESIGN.md open-question resolution), evict the one with
// the oldest last_accessed, repeat up to five attempts.
func (c *Cache) Set(key Key, resp dnswire.Response) {
	key = normKey(key)
	now := time.Now()
	e := &entry{
		response:  cloneResponse(resp),
		createdAt: now,
		expiresAt: now.Add(c.cfg.DefaultTTL),
	}
	e.lastAccessed.Store(now.UnixNano())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
}

// evictLocked runs the sampled-eviction routine. Caller holds c.mu.
func (c *Cache) evictLocked() {
	const sampleSize = 5
	const attempts = 5
	for attempt := 0; attempt < attempts; attempt++ {
		if len(c.entries) == 0 {
			return
		}
		var oldestKey Key
		var oldestTS int64
		found := 0
		for k, e := range c.entries {
			if found == 0 || e.lastAccessed.Load() < oldestTS {
				oldestKey = k
				oldestTS = e.lastAccessed.Load()
			}
			found++
			if found >= sampleSize {
				break
			}
		}
		if found == 0 {
			return
		}
		delete(c.entries, oldestKey)
		if len(c.entries) < c.cfg.MaxEntries {
			return
		}
	}
}

// Clear resets entries and both hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// ClearDomain removes entries whose key name equals d case-insensitively,
// across every record type.
func (c *Cache) ClearDomain(d string) {
	d = dnswire.NormalizeName(d)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Name == d {
			delete(c.entries, k)
		}
	}
}

// CleanupExpired removes all entries past their deadline.
func (c *Cache) CleanupExpired() int {
	now := time.Now()
	removed := 0
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Stats returns a snapshot of current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: n,
	}
}

func cloneResponse(r dnswire.Response) dnswire.Response {
	return dnswire.Response{
		ID:                 r.ID,
		ResponseCode:       r.ResponseCode,
		Authoritative:      r.Authoritative,
		RecursionAvailable: r.RecursionAvailable,
		Answers:            cloneRecords(r.Answers),
		Authority:          cloneRecords(r.Authority),
		Additional:         cloneRecords(r.Additional),
	}
}

func cloneRecords(recs []dnswire.Record) []dnswire.Record {
	if recs == nil {
		return nil
	}
	out := make([]dnswire.Record, len(recs))
	copy(out, recs)
	for i, rr := range recs {
		if b, ok := rr.Data.([]byte); ok {
			cp := make([]byte, len(b))
			copy(cp, b)
			out[i].Data = cp
		}
	}
	return out
}
