package hal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// NATSKVConfig configures the NATS JetStream Key-Value cache backend.
type NATSKVConfig struct {
	// URLs are the NATS server URLs. Defaults to nats.DefaultURL.
	URLs []string

	// Bucket is the Key-Value bucket name. Required.
	Bucket string

	// Description is stored on the bucket when it is created.
	Description string

	// Username and Password authenticate the connection when set.
	Username string
	Password string

	// Token authenticates the connection when set.
	Token string

	// CredsFile points to a NATS credentials file when set.
	CredsFile string

	// TTL is the bucket-wide entry lifetime. Zero means entries never
	// expire, which is what finder-owned caches require.
	TTL time.Duration

	// Replicas is the bucket replica count when the bucket is created.
	Replicas int
}

// NATSKVCache is a Cache backed by a NATS JetStream Key-Value bucket,
// letting multiple processes share memoized results.
type NATSKVCache struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKVCache connects to NATS and binds the configured bucket,
// creating it when missing.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	if config.Bucket == "" {
		return nil, ErrNATSBucketRequired
	}

	url := nats.DefaultURL
	if len(config.URLs) > 0 {
		url = strings.Join(config.URLs, ",")
	}

	options := []nats.Option{nats.Name("hal-client-cache")}

	if config.Username != "" {
		options = append(options, nats.UserInfo(config.Username, config.Password))
	}

	if config.Token != "" {
		options = append(options, nats.Token(config.Token))
	}

	if config.CredsFile != "" {
		options = append(options, nats.UserCredentials(config.CredsFile))
	}

	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      config.Bucket,
			Description: config.Description,
			TTL:         config.TTL,
			Replicas:    config.Replicas,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv}, nil
}

// Get returns the entry for a key.
func (c *NATSKVCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading key %q: %w", key, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(kvEntry.Value(), &entry); err != nil {
		return nil, fmt.Errorf("decoding cached entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Delete(key)

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry under a key.
func (c *NATSKVCache) Set(_ context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if len(data) > constants.MaxCacheValueSize {
		return ErrCacheEntryTooLarge
	}

	if _, err := c.kv.Put(key, data); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	return nil
}

// Delete removes the entry for a key.
func (c *NATSKVCache) Delete(_ context.Context, key string) error {
	err := c.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return nil
}

// Clear removes all entries from the bucket.
func (c *NATSKVCache) Clear(_ context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing keys: %w", err)
	}

	for _, key := range keys {
		if err := c.kv.Purge(key); err != nil {
			return fmt.Errorf("purging key %q: %w", key, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for a key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close drains the underlying NATS connection.
func (c *NATSKVCache) Close() error {
	if c.conn != nil {
		return c.conn.Drain()
	}

	return nil
}
