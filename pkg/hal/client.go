package hal

import (
	"context"
	"errors"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrDeprecatedClientConstructor = errors.New("use github.com/fivetwenty-io/hal-client/pkg/halclient.New to create a client")
)

// Finder is the per-particle access surface: find/create operations,
// memoization, and pagination replay over the last collection fetch.
//
// A Finder is stateful and not safe for concurrent use: the pagination
// cursor is a single slot that every find overwrites, so interleaving
// unrelated finds with pagination calls moves the cursor out from under
// the caller. Use one Finder per goroutine or serialize access.
type Finder interface {
	// Particle returns the resource name this finder is bound to.
	Particle() string

	// Find performs one logical fetch of the given kind, consulting the
	// query cache first. Results are memoized for the finder's lifetime;
	// a repeated find with an equal-by-value parameter set never touches
	// the network again.
	Find(ctx context.Context, kind QueryKind, params *Params) (*Result, error)

	// FindAll assembles the full, unpaginated collection for a filter
	// set by walking next links, bounded by a hard iteration ceiling.
	FindAll(ctx context.Context, params *Params) (*Result, error)

	// Exists reports whether a record with the given id exists. Failures
	// from the underlying find propagate, never masked as false.
	Exists(ctx context.Context, id string) (bool, error)

	// Create dispatches a create/update call. The outcome is never
	// memoized.
	Create(ctx context.Context, data Record) (*Result, error)

	// FindNext moves to the next page of the last collection fetch. The
	// result is nil, with no error, when there is no page to move to.
	FindNext(ctx context.Context) (*Result, error)

	// FindPrevious moves to the previous page of the last collection
	// fetch. Nil result, no error, when absent.
	FindPrevious(ctx context.Context) (*Result, error)

	// FindLast moves to the last page of the last collection fetch. Nil
	// result, no error, when absent.
	FindLast(ctx context.Context) (*Result, error)

	// FindCount returns the total item count from the last collection
	// fetch's metadata without touching the network. The second return
	// is false when no collection fetch preceded it.
	FindCount(ctx context.Context) (int, bool)
}

// Client hands out long-lived finders by particle name.
type Client interface {
	// Model returns the finder bound to a particle, constructing it on
	// first use. The same instance is returned for the same name.
	Model(particle string) Finder
}

// Transport constructs and sends one API call for a particle and
// parameter set. A nil response with a non-nil error means the call could
// not be attempted or completed at the transport level; callers treat
// that differently from a response carrying a failure marker.
type Transport interface {
	// FetchFirst retrieves the single first-matching record.
	FetchFirst(ctx context.Context, particle string, params *Params) (*RawResponse, error)

	// FetchAll retrieves one page of a collection, honoring the
	// parameters (filters, count, page, embed).
	FetchAll(ctx context.Context, particle string, params *Params) (*RawResponse, error)

	// CreateOrUpdate dispatches a create/update call with a payload.
	CreateOrUpdate(ctx context.Context, particle string, data Record) (*RawResponse, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards all log output. It is the default when no Logger is
// injected.
type NoopLogger struct{}

// Debug discards the message.
func (NoopLogger) Debug(_ string, _ map[string]interface{}) {}

// Info discards the message.
func (NoopLogger) Info(_ string, _ map[string]interface{}) {}

// Warn discards the message.
func (NoopLogger) Warn(_ string, _ map[string]interface{}) {}

// Error discards the message.
func (NoopLogger) Error(_ string, _ map[string]interface{}) {}

// Config represents client configuration for building a hal.Client.
//
// # Endpoint
//
// Endpoint is the base URL of the HAL API (e.g.,
// "https://api.example.com"). halclient.New normalizes it by trimming a
// trailing slash and adding "https://" when no scheme is present.
//
// # Headers
//
// Headers are attached verbatim to every request. This is the hook for
// static Authorization headers or tenant selectors; no token flows are
// implemented by the client itself.
//
// # Timeouts and retries
//
// Per-request timeouts should generally be controlled via the context
// passed to client methods. Transient failures (>=500, 429, connection
// errors) are retried by the transport when RetryMax > 0; exhausted
// retries still surface the final response for classification.
type Config struct {
	// Endpoint: base URL for the HAL API. Required.
	Endpoint string

	// Headers: static headers attached to every request.
	Headers map[string]string

	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	// HTTPTimeout: optional default HTTP timeout where supported.
	HTTPTimeout time.Duration

	// RetryMax: maximum number of transport retries for transient
	// failures. Zero disables retrying.
	RetryMax int

	// RetryWaitMin: minimum backoff between retries. Applied when
	// RetryMax > 0.
	RetryWaitMin time.Duration

	// RetryWaitMax: maximum backoff between retries. Applied when
	// RetryMax > 0.
	RetryWaitMax time.Duration

	// Debug: enables verbose HTTP request/response logging when a Logger
	// is provided.
	Debug bool

	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger

	// Interceptors: optional request/response hooks invoked around
	// every transport call.
	Interceptors *InterceptorChain

	// Cache: cache backend configuration. Nil means an unbounded
	// in-memory cache per finder.
	Cache *CacheConfig
}

// NewClient creates a new HAL API client
// Deprecated: Use github.com/fivetwenty-io/hal-client/pkg/halclient.New instead.
func NewClient(config *Config) (Client, error) {
	return nil, ErrDeprecatedClientConstructor
}
