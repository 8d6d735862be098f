// Package cache implements a content-addressed cache for the four
// kinds of expensive, idempotent calls a Run makes: evidence retrieval,
// web search, generation, and embedding. Sha256-fingerprint keys,
// per-entry TTL, a background expiry sweep, and hit/miss/eviction stats.
// Entries are spread over lock shards by their key's first byte, so
// concurrent lookups of different keys rarely contend on one mutex.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/config"
)

// Kind discriminates the four cacheable call shapes.
type Kind string

const (
	KindRetrieve  Kind = "retrieve"
	KindGenerate  Kind = "generate"
	KindEmbed     Kind = "embed"
	KindWebsearch Kind = "websearch"
)

// shardCount fixes the number of lock shards. A fingerprint's first byte
// selects its shard, so lookups of different kinds or inputs rarely
// block each other.
const shardCount = 32

// Stats reports cumulative hit/miss/eviction counters and the current
// entry count, totalled across every call kind.
type Stats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means "never expires"
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// Cache is a sharded, TTL-aware, content-addressed byte-value cache.
type Cache struct {
	shards    [shardCount]*shard
	hits      int64
	misses    int64
	evictions int64
	statsMu   sync.Mutex
	sizeCap   int64
	size      int64
}

// New builds a Cache and records sizeCapBytes. The cap is stored but not
// enforced: neither Put nor Sweep evicts entries by size, and Sweep
// removes only expired entries.
func New(sizeCapBytes int64) *Cache {
	c := &Cache{sizeCap: sizeCapBytes}
	for i := range c.shards {
		c.shards[i] = &shard{items: make(map[string]entry)}
	}
	return c
}

// Key fingerprints (kind, input) into a stable sha256-prefix cache key.
func Key(kind Kind, input string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) shardFor(key string) *shard {
	if len(key) == 0 {
		return c.shards[0]
	}
	return c.shards[key[0]%shardCount]
}

// Get looks up key, reporting a miss for both absence and expiry.
func (c *Cache) Get(key string) ([]byte, bool) {
	sh := c.shardFor(key)
	sh.mu.RLock()
	e, found := sh.items[key]
	sh.mu.RUnlock()

	if !found {
		c.recordMiss()
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return e.value, true
}

// Put stores value under key with the given ttl (0 means never expires —
// used for evidence retrievals, which are stable for a corpus's lifetime).
func (c *Cache) Put(key string, value []byte, ttl time.Duration) {
	sh := c.shardFor(key)
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	sh.mu.Lock()
	if _, existed := sh.items[key]; !existed {
		c.statsMu.Lock()
		c.size++
		c.statsMu.Unlock()
	}
	sh.items[key] = entry{value: value, expiresAt: expiresAt}
	sh.mu.Unlock()
}

// Sweep removes expired entries across every shard. The janitor calls
// this on a fixed schedule rather than relying on lazy expiry alone, so
// memory used by entries nobody looks up again is still reclaimed.
func (c *Cache) Sweep() {
	now := time.Now()
	var evicted int64
	for _, sh := range c.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
				delete(sh.items, k)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	if evicted == 0 {
		return
	}
	c.statsMu.Lock()
	c.evictions += evicted
	c.size -= evicted
	c.statsMu.Unlock()
}

// Stats reports cumulative hit/miss/eviction counters and current size.
func (c *Cache) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:      int(c.size),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.misses++
	c.statsMu.Unlock()
}

// ExpiryFor maps a call kind to its configured TTL, so callers never have
// to know which CachePolicy field backs which Kind.
func ExpiryFor(policy config.CachePolicy, kind Kind) time.Duration {
	switch kind {
	case KindRetrieve:
		return policy.RetrieveExpiry
	case KindWebsearch:
		return policy.WebsearchExpiry
	case KindGenerate:
		return policy.GenerateExpiry
	case KindEmbed:
		return policy.EmbedExpiry
	default:
		return 0
	}
}
