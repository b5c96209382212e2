package commands

import (
	"testing"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIConfig(t *testing.T) {
	config := &Config{
		APIs: map[string]*APIConfig{
			"prod": {Endpoint: "https://api.example.com"},
			"dev":  {Endpoint: "http://localhost:8080"},
		},
		CurrentAPI: "prod",
	}

	t.Run("flag matches a configured name", func(t *testing.T) {
		apiConfig, name, err := resolveAPIConfig(config, "dev")
		require.NoError(t, err)
		assert.Equal(t, "dev", name)
		assert.Equal(t, "http://localhost:8080", apiConfig.Endpoint)
	})

	t.Run("flag matches a configured endpoint", func(t *testing.T) {
		apiConfig, name, err := resolveAPIConfig(config, "https://api.example.com")
		require.NoError(t, err)
		assert.Equal(t, "prod", name)
		assert.Equal(t, "https://api.example.com", apiConfig.Endpoint)
	})

	t.Run("unknown flag is used as an ad-hoc endpoint", func(t *testing.T) {
		apiConfig, name, err := resolveAPIConfig(config, "https://other.example.com")
		require.NoError(t, err)
		assert.Empty(t, name)
		assert.Equal(t, "https://other.example.com", apiConfig.Endpoint)
	})

	t.Run("no flag falls back to the current API", func(t *testing.T) {
		apiConfig, name, err := resolveAPIConfig(config, "")
		require.NoError(t, err)
		assert.Equal(t, "prod", name)
		assert.Equal(t, "https://api.example.com", apiConfig.Endpoint)
	})

	t.Run("current API missing from configuration", func(t *testing.T) {
		broken := &Config{
			APIs:       map[string]*APIConfig{},
			CurrentAPI: "gone",
		}

		_, _, err := resolveAPIConfig(broken, "")
		require.ErrorIs(t, err, constants.ErrAPINotFound)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, _, err := resolveAPIConfig(&Config{APIs: map[string]*APIConfig{}}, "")
		require.ErrorIs(t, err, constants.ErrNoEndpointConfigured)
	})
}

func TestRetryMaxFor(t *testing.T) {
	assert.Equal(t, 7, retryMaxFor(&APIConfig{RetryMax: 7}))
	assert.Equal(t, 5, retryMaxFor(&APIConfig{}))
}

func TestCacheConfigFromSettings(t *testing.T) {
	t.Run("nil settings keep the client default", func(t *testing.T) {
		assert.Nil(t, cacheConfigFromSettings(nil))
	})

	t.Run("nats settings", func(t *testing.T) {
		cacheConfig := cacheConfigFromSettings(&CacheSettings{
			Type:       "nats",
			NATSURLs:   []string{"nats://localhost:4222"},
			NATSBucket: "queries",
		})

		require.NotNil(t, cacheConfig)
		assert.Equal(t, hal.CacheTypeNATS, cacheConfig.Type)
		require.NotNil(t, cacheConfig.NATS)
		assert.Equal(t, []string{"nats://localhost:4222"}, cacheConfig.NATS.URLs)
		assert.Equal(t, "queries", cacheConfig.NATS.Bucket)
	})

	t.Run("nats bucket defaults", func(t *testing.T) {
		cacheConfig := cacheConfigFromSettings(&CacheSettings{Type: "nats"})

		require.NotNil(t, cacheConfig)
		require.NotNil(t, cacheConfig.NATS)
		assert.Equal(t, "hal-queries", cacheConfig.NATS.Bucket)
	})

	t.Run("none disables caching", func(t *testing.T) {
		cacheConfig := cacheConfigFromSettings(&CacheSettings{Type: "none"})

		require.NotNil(t, cacheConfig)
		assert.Equal(t, hal.CacheTypeNone, cacheConfig.Type)
	})

	t.Run("memory is the default", func(t *testing.T) {
		cacheConfig := cacheConfigFromSettings(&CacheSettings{Type: "memory"})

		require.NotNil(t, cacheConfig)
		assert.Equal(t, hal.CacheTypeMemory, cacheConfig.Type)
	})
}

func TestApplyFilterArgs(t *testing.T) {
	params := hal.NewParams()

	err := applyFilterArgs(params, []string{"status=active", "tag=a=b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"active"}, params.Filter("status"))
	// Only the first separator splits, values may contain '='.
	assert.Equal(t, []string{"a=b"}, params.Filter("tag"))

	err = applyFilterArgs(params, []string{"garbage"})
	require.ErrorIs(t, err, ErrInvalidFilterFormat)

	err = applyFilterArgs(params, []string{"=value"})
	require.ErrorIs(t, err, ErrInvalidFilterFormat)
}

func TestRecordColumns(t *testing.T) {
	records := []hal.Record{
		{"name": "first", "id": "1"},
		{"id": "2", "status": "active"},
	}

	assert.Equal(t, []string{"id", "name", "status"}, recordColumns(records))
}

func TestRecordColumnsWithoutID(t *testing.T) {
	records := []hal.Record{
		{"name": "only", "zone": "a"},
	}

	assert.Equal(t, []string{"name", "zone"}, recordColumns(records))
}

func TestFormatCellValue(t *testing.T) {
	assert.Equal(t, "N/A", formatCellValue(nil))
	assert.Equal(t, "plain", formatCellValue("plain"))
	assert.Equal(t, "true", formatCellValue(true))
	assert.Equal(t, "42", formatCellValue(float64(42)))
	assert.Equal(t, "1.5", formatCellValue(1.5))
	assert.Equal(t, "7", formatCellValue(7))
	assert.Equal(t, `{"a":"b"}`, formatCellValue(map[string]interface{}{"a": "b"}))
	assert.Equal(t, `["x","y"]`, formatCellValue([]interface{}{"x", "y"}))
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 10))
	assert.Equal(t, "untouched", truncateCell("untouched", 0))
	assert.Equal(t, "abc...", truncateCell("abcdefghij", 6))
}

func TestLogArgs(t *testing.T) {
	args := logArgs(map[string]interface{}{
		"b": 2,
		"a": 1,
	})

	assert.Equal(t, []interface{}{"a", 1, "b", 2}, args)
}
