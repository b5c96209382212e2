package hal_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFactory_MemoryCache(t *testing.T) {
	config := &hal.CacheConfig{
		Type: hal.CacheTypeMemory,
		Memory: &hal.MemoryCacheConfig{
			MaxSize: 100,
		},
	}

	cache, err := hal.NewCacheFromConfig(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	// Test basic operations
	ctx := context.Background()
	entry := &hal.CacheEntry{
		Result:   resultWithRecord(hal.KindFirst, "factory test"),
		StoredAt: time.Now(),
	}

	// Set
	err = cache.Set(ctx, "test-key", entry)
	assert.NoError(t, err)

	// Get
	retrieved, err := cache.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Result, retrieved.Result)

	// Has
	assert.True(t, cache.Has(ctx, "test-key"))

	// Delete
	err = cache.Delete(ctx, "test-key")
	assert.NoError(t, err)
	assert.False(t, cache.Has(ctx, "test-key"))
}

func TestCacheFactory_NoOpCache(t *testing.T) {
	config := &hal.CacheConfig{
		Type: hal.CacheTypeNone,
	}

	cache, err := hal.NewCacheFromConfig(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	ctx := context.Background()
	entry := &hal.CacheEntry{
		Result:   resultWithRecord(hal.KindFirst, "noop test"),
		StoredAt: time.Now(),
	}

	// Set should succeed but do nothing
	err = cache.Set(ctx, "test-key", entry)
	assert.NoError(t, err)

	// Get should always fail
	_, err = cache.Get(ctx, "test-key")
	assert.Error(t, err)

	// Has should always return false
	assert.False(t, cache.Has(ctx, "test-key"))

	// Delete should succeed but do nothing
	err = cache.Delete(ctx, "test-key")
	assert.NoError(t, err)

	// Clear should succeed but do nothing
	err = cache.Clear(ctx)
	assert.NoError(t, err)
}

func TestCacheFactory_NATSRequiresConfig(t *testing.T) {
	config := &hal.CacheConfig{
		Type: hal.CacheTypeNATS,
	}

	cache, err := hal.NewCacheFromConfig(config)
	require.ErrorIs(t, err, hal.ErrNATSConfigRequired)
	assert.Nil(t, cache)
}

func TestCacheBuilder(t *testing.T) {
	builder := hal.NewCacheBuilder()
	cache, err := builder.
		WithType(hal.CacheTypeMemory).
		WithMemoryConfig(50).
		Build()

	require.NoError(t, err)
	require.NotNil(t, cache)

	// Test that the cache works
	ctx := context.Background()
	entry := &hal.CacheEntry{
		Result:   resultWithRecord(hal.KindFirst, "builder test"),
		StoredAt: time.Now(),
	}

	err = cache.Set(ctx, "builder-key", entry)
	assert.NoError(t, err)

	retrieved, err := cache.Get(ctx, "builder-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Result, retrieved.Result)
}

func TestCacheChain(t *testing.T) {
	// Create two memory caches
	l1Cache := hal.NewMemoryCache(10)
	l2Cache := hal.NewMemoryCache(100)

	// Create chain
	chain := hal.NewCacheChain(l1Cache, l2Cache)

	ctx := context.Background()
	entry := &hal.CacheEntry{
		Result:   resultWithRecord(hal.KindFirst, "chain test"),
		StoredAt: time.Now(),
	}

	// Set should store in both caches
	err := chain.Set(ctx, "chain-key", entry)
	assert.NoError(t, err)

	// Verify both caches have the entry
	assert.True(t, l1Cache.Has(ctx, "chain-key"))
	assert.True(t, l2Cache.Has(ctx, "chain-key"))

	// Delete from L1 only
	err = l1Cache.Delete(ctx, "chain-key")
	assert.NoError(t, err)

	// Get should still work (from L2) and repopulate L1
	retrieved, err := chain.Get(ctx, "chain-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Result, retrieved.Result)

	// L1 should have the entry again
	assert.True(t, l1Cache.Has(ctx, "chain-key"))

	// Delete from chain should delete from both
	err = chain.Delete(ctx, "chain-key")
	assert.NoError(t, err)
	assert.False(t, l1Cache.Has(ctx, "chain-key"))
	assert.False(t, l2Cache.Has(ctx, "chain-key"))
}

func TestDefaultCacheConfig(t *testing.T) {
	config := hal.DefaultCacheConfig()
	assert.Equal(t, hal.CacheTypeMemory, config.Type)
	require.NotNil(t, config.Memory)

	// Finder caches are unbounded: entries are never evicted.
	assert.Equal(t, 0, config.Memory.MaxSize)
}

func TestBoundedCacheConfig(t *testing.T) {
	config := hal.BoundedCacheConfig()
	assert.Equal(t, hal.CacheTypeMemory, config.Type)
	require.NotNil(t, config.Memory)
	assert.Equal(t, 1000, config.Memory.MaxSize)
}

func TestCacheFactory_InvalidType(t *testing.T) {
	config := &hal.CacheConfig{
		Type: hal.CacheType("invalid"),
	}

	cache, err := hal.NewCacheFromConfig(config)
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "unsupported cache type")
}

func TestCacheFactory_NilConfig(t *testing.T) {
	cache, err := hal.NewCacheFromConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, cache)

	// Should use default config (unbounded memory cache)
	ctx := context.Background()
	entry := &hal.CacheEntry{
		Result:   resultWithRecord(hal.KindFirst, "default test"),
		StoredAt: time.Now(),
	}

	err = cache.Set(ctx, "default-key", entry)
	assert.NoError(t, err)

	retrieved, err := cache.Get(ctx, "default-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Result, retrieved.Result)
}
