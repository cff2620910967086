// Package cache implements the in-memory TTL cache backing the data layer's
// read path. Entries are evicted lazily: an expired entry is deleted the next
// time it is read, there is no background sweeper (Cleanup can be called
// explicitly by long-lived hosts).
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is applied by Set when the caller passes a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	data      any
	timestamp time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.timestamp.Add(e.ttl))
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// Cache is a TTL-based key/value store safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    int64
	misses  int64

	// now is a test seam for expiry checks.
	now func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set stores data under key for ttl. A non-positive ttl falls back to
// DefaultTTL. Existing entries are replaced wholesale.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, timestamp: c.now(), ttl: ttl}
}

// Get returns the cached value, or (nil, false) counting a miss when the key
// is absent or expired. Expired entries are deleted on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.data, true
}

// Has reports whether a live entry exists for key without touching counters.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && !e.expired(c.now())
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// the number of entries removed.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear drops all entries. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Cleanup sweeps all expired entries and returns the number removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// GetStats returns current size and hit/miss counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Key builds a deterministic cache key from an operation name and its
// parameters: maps, slices and structs are JSON-serialized, everything else
// is rendered with fmt, all joined by ':'. Two calls with equal parameters
// always yield the same key.
func Key(operation string, parts ...any) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, operation)
	for _, p := range parts {
		segments = append(segments, keySegment(p))
	}
	return strings.Join(segments, ":")
}

func keySegment(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
