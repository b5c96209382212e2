package model

import (
	"sort"
	"sync"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// CacheFactory builds the cache backend for one Model. Each Model gets
// its own backend so per-particle memoization never bleeds across
// collections.
type CacheFactory func() (hal.Cache, error)

// Registry hands out one long-lived Model per particle. All Models share
// the transport and logger; the registry itself is safe for concurrent
// use even though the Models it returns are not.
type Registry struct {
	mu        sync.Mutex
	transport hal.Transport
	logger    hal.Logger
	factory   CacheFactory
	models    map[string]*Model
}

var _ hal.Client = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger shared by the registry and its Models.
func WithLogger(logger hal.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCacheFactory sets the builder used to create each Model's cache
// backend.
func WithCacheFactory(factory CacheFactory) Option {
	return func(r *Registry) {
		if factory != nil {
			r.factory = factory
		}
	}
}

// NewRegistry creates a registry whose Models share the given transport.
// By default every Model gets an unbounded in-memory cache and logging
// is disabled.
func NewRegistry(transport hal.Transport, opts ...Option) (*Registry, error) {
	if transport == nil {
		return nil, hal.ErrTransportRequired
	}

	registry := &Registry{
		transport: transport,
		logger:    hal.NoopLogger{},
		factory: func() (hal.Cache, error) {
			return hal.NewCacheFromConfig(hal.DefaultCacheConfig())
		},
		models: make(map[string]*Model),
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry, nil
}

// Model returns the finder for a particle, creating it on first use.
// Repeated calls with the same particle return the same instance, so
// its cache and pagination cursor persist across call sites.
func (r *Registry) Model(particle string) hal.Finder {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.models[particle]; ok {
		return existing
	}

	cache, err := r.factory()
	if err != nil {
		r.logger.Error("cache backend construction failed, using in-memory fallback", map[string]interface{}{
			"particle": particle,
			"error":    err.Error(),
		})

		cache = hal.NewMemoryCache(0)
	}

	created := &Model{
		particle:  particle,
		transport: r.transport,
		cache:     hal.NewCacheManager(cache),
		logger:    r.logger,
	}

	r.models[particle] = created

	return created
}

// Particles returns the names of all collections a Model has been built
// for, sorted for stable output.
func (r *Registry) Particles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
