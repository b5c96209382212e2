package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits for the transport layer.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// LowRetryMax is used for operations that should retry fewer times.
	LowRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch groups.
	DefaultConcurrencyLimit = 3

	// SmallBufferSize is used for page-streaming channels.
	SmallBufferSize = 10
)

// Pagination limits.
const (
	// DefaultPageSize is the default number of records per page.
	DefaultPageSize = 10

	// LargePageSize is used for efficient bulk operations.
	LargePageSize = 100

	// MaxPages is used to prevent infinite loops in pagination.
	MaxPages = 50
)

// Cache sizing.
const (
	// DefaultCacheSize is the default entry limit for caller-managed caches.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default time-to-live for caller-managed caches.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024
)

// Output format constants.
const (
	// FormatTable for tabular output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Command argument counts.
const (
	// TwoArguments is the argument count for key/value style commands.
	TwoArguments = 2
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLength is the default length for truncating table cells.
	StringTruncationLength = 80

	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2
)
