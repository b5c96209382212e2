package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
	"github.com/hashicorp/go-hclog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Common static errors used throughout the commands package.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidFilterFormat = errors.New("invalid filter format, expected key=value")
	ErrPayloadRequired     = errors.New("one of --data or --file is required")
	ErrPayloadConflict     = errors.New("--data and --file are mutually exclusive")
	ErrPayloadNotParseable = errors.New("payload file is neither valid JSON nor YAML")
	ErrHeaderValueRequired = errors.New("header value is required, pass it as an argument or use --prompt")
	ErrInvalidCacheType    = errors.New("cache type must be memory, nats, or none")
	ErrCountUnavailable    = errors.New("collection reported no count metadata")
)

// CreateClient builds a HAL client for the API selected by the --api
// flag, falling back to the currently targeted API.
func CreateClient(apiFlag string) (hal.Client, error) {
	config := loadConfig()

	apiConfig, _, err := resolveAPIConfig(config, apiFlag)
	if err != nil {
		return nil, err
	}

	clientConfig := &hal.Config{
		Endpoint:    apiConfig.Endpoint,
		Headers:     apiConfig.Headers,
		UserAgent:   apiConfig.UserAgent,
		HTTPTimeout: apiConfig.TimeoutDuration(),
		RetryMax:    retryMaxFor(apiConfig),
		Debug:       viper.GetBool("verbose"),
		Logger:      newCommandLogger(),
		Cache:       cacheConfigFromSettings(apiConfig.Cache),
	}

	client, err := halclient.New(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create HAL client: %w", err)
	}

	return client, nil
}

// resolveAPIConfig picks the API configuration the flag addresses: a
// configured short name, a configured endpoint, or, when neither
// matches, the flag taken as a direct endpoint URL. With no flag the
// currently targeted API is used.
func resolveAPIConfig(config *Config, apiFlag string) (*APIConfig, string, error) {
	if apiFlag != "" {
		if apiConfig, exists := config.APIs[apiFlag]; exists {
			return apiConfig, apiFlag, nil
		}

		for name, apiConfig := range config.APIs {
			if apiConfig.Endpoint == apiFlag {
				return apiConfig, name, nil
			}
		}

		return &APIConfig{Endpoint: apiFlag}, "", nil
	}

	if config.CurrentAPI != "" {
		apiConfig, exists := config.APIs[config.CurrentAPI]
		if !exists {
			return nil, "", fmt.Errorf("%w: %q", constants.ErrAPINotFound, config.CurrentAPI)
		}

		return apiConfig, config.CurrentAPI, nil
	}

	return nil, "", constants.ErrNoEndpointConfigured
}

// retryMaxFor returns the retry budget for an API, defaulting when the
// configuration does not name one.
func retryMaxFor(apiConfig *APIConfig) int {
	if apiConfig.RetryMax > 0 {
		return apiConfig.RetryMax
	}

	return constants.DefaultRetryMax
}

// cacheConfigFromSettings translates the CLI cache settings into the
// client's cache configuration. Nil settings keep the client default.
func cacheConfigFromSettings(settings *CacheSettings) *hal.CacheConfig {
	if settings == nil {
		return nil
	}

	switch hal.CacheType(settings.Type) {
	case hal.CacheTypeNATS:
		bucket := settings.NATSBucket
		if bucket == "" {
			bucket = "hal-queries"
		}

		return &hal.CacheConfig{
			Type: hal.CacheTypeNATS,
			NATS: &hal.NATSKVConfig{
				URLs:   settings.NATSURLs,
				Bucket: bucket,
			},
		}
	case hal.CacheTypeNone:
		return &hal.CacheConfig{Type: hal.CacheTypeNone}
	default:
		return hal.DefaultCacheConfig()
	}
}

// newCommandLogger builds the structured logger handed to the HAL
// client. Verbose mode lowers the level to debug so transport logging
// shows up on stderr.
func newCommandLogger() hal.Logger {
	level := hclog.Warn
	if viper.GetBool("verbose") {
		level = hclog.Debug
	}

	color := hclog.AutoColor
	if viper.GetBool("no_color") {
		color = hclog.ColorOff
	}

	return &hclogAdapter{logger: hclog.New(&hclog.LoggerOptions{
		Name:   "hal",
		Level:  level,
		Output: os.Stderr,
		Color:  color,
	})}
}

// hclogAdapter exposes an hclog logger through the hal.Logger interface.
type hclogAdapter struct {
	logger hclog.Logger
}

func (a *hclogAdapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, logArgs(fields)...)
}

func (a *hclogAdapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, logArgs(fields)...)
}

func (a *hclogAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, logArgs(fields)...)
}

func (a *hclogAdapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, logArgs(fields)...)
}

// logArgs flattens a field map into hclog's alternating key/value form,
// keys sorted so log lines are stable.
func logArgs(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	args := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return args
}

// applyFilterArgs parses repeated --filter key=value arguments into the
// parameter set.
func applyFilterArgs(params *hal.Params, filters []string) error {
	for _, raw := range filters {
		parts := strings.SplitN(raw, "=", constants.KeyValueSplitParts)
		if len(parts) != constants.KeyValueSplitParts || parts[0] == "" {
			return fmt.Errorf("%w: %q", ErrInvalidFilterFormat, raw)
		}

		params.WithFilter(parts[0], parts[1])
	}

	return nil
}

// StandardJSONRenderer encodes data as indented JSON on stdout.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer encodes data as YAML on stdout.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// recordColumns returns the union of keys across records, sorted, with
// the id column hoisted to the front when present.
func recordColumns(records []hal.Record) []string {
	seen := make(map[string]struct{})

	for _, record := range records {
		for key := range record {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))

	for key := range seen {
		if key == "id" {
			continue
		}

		columns = append(columns, key)
	}

	sort.Strings(columns)

	if _, ok := seen["id"]; ok {
		columns = append([]string{"id"}, columns...)
	}

	return columns
}

// formatCellValue renders an arbitrary record value for table output.
func formatCellValue(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// truncateCell shortens a value to the given rune limit. A limit of zero
// or less leaves the value untouched.
func truncateCell(value string, limit int) string {
	if limit <= 0 {
		return value
	}

	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}

	return string(runes[:limit-3]) + "..."
}

// cellWidthLimit picks the table cell truncation limit. Piped output is
// left untruncated; interactive terminals get capped cells so rows stay
// readable, with wide terminals allowed proportionally more.
func cellWidthLimit() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return constants.StringTruncationLength
	}

	if half := width / 2; half > constants.StringTruncationLength {
		return half
	}

	return constants.StringTruncationLength
}

// renderRecordsTable prints records as a table, one row per record with
// the union of keys as columns.
func renderRecordsTable(records []hal.Record) error {
	columns := recordColumns(records)
	limit := cellWidthLimit()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(columns)

	for _, record := range records {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, truncateCell(formatCellValue(record[column]), limit))
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderRecordDetails prints a single record as property/value rows.
func renderRecordDetails(record hal.Record) error {
	columns := recordColumns([]hal.Record{record})
	limit := cellWidthLimit()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	for _, column := range columns {
		_ = table.Append(column, truncateCell(formatCellValue(record[column]), limit))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
