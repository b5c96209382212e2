package hal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"
)

// CacheKey derives the digest under which a find's interpreted result is
// memoized. The parameters are canonicalized first, so equal-by-value
// sets produce the same key no matter how or in what order they were
// built, and distinct sets collide only with negligible probability.
func CacheKey(particle string, kind QueryKind, params *Params) string {
	digest := sha256.Sum256([]byte(particle + "\x00" + string(kind) + "\x00" + params.Canonical()))

	return hex.EncodeToString(digest[:])
}

// CacheEntry is one memoized result. Entries written by a finder carry no
// expiry and live for the owning instance's lifetime; caller-managed
// caches may set ExpiresAt.
type CacheEntry struct {
	Result    *Result   `json:"result"               yaml:"result"`
	StoredAt  time.Time `json:"stored_at"            yaml:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Expired reports whether the entry has an expiry in the past.
func (e *CacheEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Cache stores interpreted results by key.
type Cache interface {
	// Get returns the entry for a key, ErrCacheKeyNotFound when absent,
	// or ErrCacheEntryExpired when present but past its expiry.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores an entry under a key, overwriting any prior entry.
	Set(ctx context.Context, key string, entry *CacheEntry) error

	// Delete removes the entry for a key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Has reports whether a live entry exists for a key.
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-process Cache backed by a map.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*CacheEntry
	maxEntries int
}

// NewMemoryCache creates an in-memory cache. A maxEntries of zero or less
// means unbounded, which is what finders use: their entries are never
// evicted. A positive bound evicts the oldest entry on overflow and is
// only meant for caller-managed caches.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*CacheEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the entry for a key.
func (c *MemoryCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.Expired() {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores an entry under a key.
func (c *MemoryCache) Set(_ context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictOldest()
		}
	}

	c.entries[key] = entry

	return nil
}

// Delete removes the entry for a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has reports whether a live entry exists for a key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for key, entry := range c.entries {
		if entry.Expired() {
			delete(c.entries, key)

			removed++
		}
	}

	return removed
}

// evictOldest drops the entry with the earliest store time. Caller must
// hold the write lock.
func (c *MemoryCache) evictOldest() {
	var (
		oldestKey  string
		oldestTime time.Time
	)

	for key, entry := range c.entries {
		if oldestKey == "" || entry.StoredAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.StoredAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// NoOpCache is a Cache that stores nothing, disabling memoization.
type NoOpCache struct{}

// NewNoOpCache creates a cache that never hits.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(_ context.Context, _ string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards the entry.
func (c *NoOpCache) Set(_ context.Context, _ string, _ *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(_ context.Context, _ string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(_ context.Context) error {
	return nil
}

// Has always reports false.
func (c *NoOpCache) Has(_ context.Context, _ string) bool {
	return false
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"   yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
	Sets   int64 `json:"sets"   yaml:"sets"`
}

// GetHitRate returns the fraction of lookups that hit.
func (s CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager wraps a Cache with hit/miss/set counters so memoization
// effectiveness is observable.
type CacheManager struct {
	cache  Cache
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewCacheManager wraps a cache with counters.
func NewCacheManager(cache Cache) *CacheManager {
	return &CacheManager{cache: cache}
}

// Get returns the memoized result for a key, counting the lookup.
func (m *CacheManager) Get(ctx context.Context, key string) (*Result, bool) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil || entry == nil || entry.Result == nil {
		m.misses.Add(1)

		return nil, false
	}

	m.hits.Add(1)

	return entry.Result, true
}

// Set memoizes a result under a key with no expiry.
func (m *CacheManager) Set(ctx context.Context, key string, result *Result) error {
	m.sets.Add(1)

	entry := &CacheEntry{
		Result:   result,
		StoredAt: time.Now(),
	}

	return m.cache.Set(ctx, key, entry)
}

// Delete removes the entry for a key.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	return m.cache.Delete(ctx, key)
}

// Clear removes all entries.
func (m *CacheManager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Stats returns a snapshot of the counters.
func (m *CacheManager) Stats() CacheStats {
	return CacheStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Sets:   m.sets.Load(),
	}
}
