package model

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Pagination directions understood by Model.Paginate.
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
	DirectionLast     = "last"
	DirectionCount    = "count"
)

// findState is the single-slot record of the most recent find dispatch.
// It anchors pagination: only a collection find arms the cursor.
type findState struct {
	kind   hal.QueryKind
	params *hal.Params
}

// Model is the per-particle finder. It owns the particle's query cache,
// the single pagination cursor, and the dispatch to the transport.
//
// A Model is not safe for concurrent use: last-find and last-response
// are single-slot last-write-wins, so interleaving unrelated finds with
// pagination silently moves the cursor. Callers that need parallelism
// use one Model per goroutine or external locking.
type Model struct {
	particle  string
	transport hal.Transport
	cache     *hal.CacheManager
	logger    hal.Logger

	lastFind     *findState
	lastResponse *hal.RawResponse
}

// NewModel creates a finder for one particle. A nil cache falls back to
// an unbounded in-memory cache; a nil logger disables logging.
func NewModel(particle string, transport hal.Transport, cache hal.Cache, logger hal.Logger) (*Model, error) {
	if particle == "" {
		return nil, hal.ErrParticleRequired
	}

	if transport == nil {
		return nil, hal.ErrTransportRequired
	}

	if cache == nil {
		cache = hal.NewMemoryCache(0)
	}

	if logger == nil {
		logger = hal.NoopLogger{}
	}

	return &Model{
		particle:  particle,
		transport: transport,
		cache:     hal.NewCacheManager(cache),
		logger:    logger,
	}, nil
}

// Particle returns the collection name this finder serves.
func (m *Model) Particle() string {
	return m.particle
}

// LastQuery returns the kind and parameters of the most recent find
// dispatch. The third return is false before any find has gone to the
// transport.
func (m *Model) LastQuery() (hal.QueryKind, *hal.Params, bool) {
	if m.lastFind == nil {
		return "", nil, false
	}

	return m.lastFind.kind, m.lastFind.params.Clone(), true
}

// CacheStats returns the hit/miss/set counters of this finder's cache.
func (m *Model) CacheStats() hal.CacheStats {
	return m.cache.Stats()
}

// Find runs one query against the particle. Results are memoized by the
// canonical (particle, kind, params) key: a cache hit returns the stored
// result with no network call and no state changes. On a miss the
// request is recorded as the pagination anchor, dispatched, classified,
// interpreted, and — when the response was valid — cached. Entries are
// never invalidated for the Model's lifetime.
//
// A transport-level failure is recorded against the cursor state and
// returns an empty result with a nil error; remote failures and
// validation rejections are raised as typed errors.
func (m *Model) Find(ctx context.Context, kind hal.QueryKind, params *hal.Params) (*hal.Result, error) {
	if kind != hal.KindFirst && kind != hal.KindAll {
		return nil, fmt.Errorf("%w: %s", hal.ErrUnsupportedQueryKind, kind)
	}

	key := hal.CacheKey(m.particle, kind, params)

	if cached, ok := m.cache.Get(ctx, key); ok {
		m.logger.Debug("query cache hit", map[string]interface{}{
			"particle": m.particle,
			"kind":     string(kind),
		})

		return cached, nil
	}

	// The dispatched request becomes the pagination anchor even when the
	// fetch fails.
	m.lastFind = &findState{kind: kind, params: params.Clone()}

	var (
		resp *hal.RawResponse
		err  error
	)

	switch kind {
	case hal.KindFirst:
		resp, err = m.transport.FetchFirst(ctx, m.particle, params)
	default:
		resp, err = m.transport.FetchAll(ctx, m.particle, params)
	}

	if err != nil || resp == nil {
		return m.recordTransportFailure(kind, err), nil
	}

	m.lastResponse = resp.Clone()

	if err := hal.Classify(resp); err != nil {
		return nil, err
	}

	result := hal.Interpret(resp, kind)

	if resp.Valid() {
		if cacheErr := m.cache.Set(ctx, key, result); cacheErr != nil {
			m.logger.Warn("query cache store failed", map[string]interface{}{
				"particle": m.particle,
				"error":    cacheErr.Error(),
			})
		}
	}

	return result, nil
}

// recordTransportFailure notes a connection-level failure in the cursor
// state and yields the shape-appropriate empty result. The failure is
// observable through the recorded state, not raised.
func (m *Model) recordTransportFailure(kind hal.QueryKind, err error) *hal.Result {
	fields := map[string]interface{}{"particle": m.particle}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.Warn("transport failure recorded", fields)

	m.lastResponse = hal.NewFailureResponse(0)

	return hal.Interpret(m.lastResponse, kind)
}

// FindAll assembles the full collection for the parameters, walking next
// links behind the scenes under the default iteration budget.
func (m *Model) FindAll(ctx context.Context, params *hal.Params) (*hal.Result, error) {
	return hal.CollectAll(ctx, m, params, hal.DefaultPaginationOptions())
}

// Exists reports whether a record with the given identifier exists.
// Raised failures propagate; they are never collapsed into false.
func (m *Model) Exists(ctx context.Context, id string) (bool, error) {
	result, err := m.Find(ctx, hal.KindFirst, hal.NewParams().WithFilter("id", id))
	if err != nil {
		return false, err
	}

	return !result.Empty(), nil
}

// Create submits a new record. The response runs through the same
// classification as finds, so validation rejections surface as
// *hal.ValidationError. Created results are never cached and do not
// touch the pagination anchor, though the response itself becomes the
// last-response state.
func (m *Model) Create(ctx context.Context, data hal.Record) (*hal.Result, error) {
	resp, err := m.transport.CreateOrUpdate(ctx, m.particle, data)
	if err != nil || resp == nil {
		return m.recordTransportFailure(hal.KindRaw, err), nil
	}

	m.lastResponse = resp.Clone()

	if err := hal.Classify(resp); err != nil {
		return nil, err
	}

	return hal.Interpret(resp, hal.KindRaw), nil
}

// Paginate replays the last collection fetch's metadata in the given
// direction. It returns (nil, nil) — not an error — when the cursor is
// not armed: no collection find has happened, the last response was not
// a valid collection, or the requested relation is absent.
func (m *Model) Paginate(ctx context.Context, direction string) (*hal.Result, error) {
	if m.lastFind == nil || m.lastFind.kind != hal.KindAll || !m.lastResponse.Valid() {
		return nil, nil
	}

	m.lastResponse.Reset()

	meta := m.lastResponse.Meta()
	if meta == nil {
		return nil, nil
	}

	if direction == DirectionCount {
		return &hal.Result{Kind: hal.KindCount, Count: meta.TotalItems}, nil
	}

	href, ok := m.lastResponse.LinkFor(direction)
	if !ok {
		return nil, nil
	}

	params, ok := hal.ParseLinkParams(href)
	if !ok {
		return nil, nil
	}

	// The nested find fetches the target page and moves the cursor.
	return m.Find(ctx, hal.KindAll, params)
}

// FindNext fetches the page behind the last collection's next link, or
// nil without error when there is none.
func (m *Model) FindNext(ctx context.Context) (*hal.Result, error) {
	return m.Paginate(ctx, DirectionNext)
}

// FindPrevious fetches the page behind the last collection's previous
// link, or nil without error when there is none.
func (m *Model) FindPrevious(ctx context.Context) (*hal.Result, error) {
	return m.Paginate(ctx, DirectionPrevious)
}

// FindLast fetches the page behind the last collection's last link, or
// nil without error when there is none.
func (m *Model) FindLast(ctx context.Context) (*hal.Result, error) {
	return m.Paginate(ctx, DirectionLast)
}

// FindCount returns the total item count reported by the last collection
// fetch without a network call. The second return is false when the
// cursor is not armed or the collection carried no count.
func (m *Model) FindCount(ctx context.Context) (int, bool) {
	result, err := m.Paginate(ctx, DirectionCount)
	if err != nil || result == nil {
		return 0, false
	}

	return result.Count, true
}
