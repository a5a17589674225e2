package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
)

// cacheKey builds a content-addressed key from the series values and
// the seasonal period. Identical inputs always hash identically, so a
// hit is guaranteed to be the result the search would reproduce.
func cacheKey(values []float64, period int) string {
	h := sha256.New()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(period))
	h.Write(buf[:])
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Cache is a process-local store of completed model selections, keyed
// by series content hash and seasonal period. Invalidate on dataset
// replacement; entries never go stale otherwise because the search is
// deterministic.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Selection
}

// NewCache creates an empty selection cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Selection)}
}

// Get returns the cached selection for key, if present.
func (c *Cache) Get(key string) (*Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, ok := c.entries[key]
	return sel, ok
}

// Put stores a selection under key.
func (c *Cache) Put(key string, sel *Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = sel
}

// Invalidate drops every entry. Called when the dataset is replaced.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Selection)
}

// Len returns the number of cached selections.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
