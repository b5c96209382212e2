package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const headerKeyPrefix = "header."

// Config represents the CLI configuration.
type Config struct {
	// Multi-API configuration
	APIs       map[string]*APIConfig `json:"apis,omitempty"        yaml:"apis,omitempty"`
	CurrentAPI string                `json:"current_api,omitempty" yaml:"current_api,omitempty"`

	// Global settings
	Output  string `json:"output"   yaml:"output"`
	NoColor bool   `json:"no_color" yaml:"no_color"`
}

// APIConfig represents configuration for a single HAL API endpoint.
type APIConfig struct {
	Endpoint  string            `json:"endpoint"             yaml:"endpoint"`
	Headers   map[string]string `json:"headers,omitempty"    yaml:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Timeout   string            `json:"timeout,omitempty"    yaml:"timeout,omitempty"`
	RetryMax  int               `json:"retry_max,omitempty"  yaml:"retry_max,omitempty"`
	Cache     *CacheSettings    `json:"cache,omitempty"      yaml:"cache,omitempty"`
}

// CacheSettings selects the query cache backend for an API.
type CacheSettings struct {
	Type       string   `json:"type"                  yaml:"type"`
	NATSURLs   []string `json:"nats_urls,omitempty"   yaml:"nats_urls,omitempty"`
	NATSBucket string   `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// TimeoutDuration parses the configured HTTP timeout, zero when unset or
// malformed.
func (c *APIConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}

	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}

	return timeout
}

func (c *APIConfig) ensureCache() *CacheSettings {
	if c.Cache == nil {
		c.Cache = &CacheSettings{Type: string(hal.CacheTypeMemory)}
	}

	return c.Cache
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage HAL CLI configuration including targeted APIs and settings",
	}

	cmd.AddCommand(newConfigListCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigSetHeaderCommand())

	return cmd
}

func newConfigListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show current configuration",
		Long:  "Display the full CLI configuration with secret header values masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(maskedConfig(config))
			case constants.FormatYAML:
				return StandardYAMLRenderer(maskedConfig(config))
			default:
				return displayConfigTable(config)
			}
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Print a single configuration value, global or API-specific",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0], apiFlag)
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "read the key from a specific API")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Global keys are output, no_color, and current_api; every other key applies to the targeted API.",
		Args:  cobra.ExactArgs(constants.TwoArguments),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1], apiFlag)
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "apply the key to a specific API")

	return cmd
}

func newConfigUnsetCommand() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value, global or API-specific. Headers are addressed as header.<name>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigUnset(args[0], apiFlag)
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "remove the key from a specific API")

	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Long:  "Print the path of the configuration file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(os.Stdout, configFilePath())

			return nil
		},
	}
}

func newConfigSetHeaderCommand() *cobra.Command {
	var (
		apiFlag string
		prompt  bool
	)

	cmd := &cobra.Command{
		Use:   "set-header NAME [VALUE]",
		Short: "Set a request header for an API",
		Long: `Store a header sent with every request to the targeted API.

Use --prompt to enter secret values such as Authorization tokens without
echoing them to the terminal.`,
		Args: cobra.RangeArgs(1, constants.TwoArguments),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetHeader(args, apiFlag, prompt)
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api", "", "apply the header to a specific API")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "prompt for the value without echoing")

	return cmd
}

func runConfigGet(key, apiFlag string) error {
	config := loadConfig()

	if isGlobalConfigKey(key) {
		_, _ = fmt.Fprintln(os.Stdout, globalConfigValue(config, key))

		return nil
	}

	apiConfig, _, err := configuredAPI(config, apiFlag)
	if err != nil {
		return err
	}

	value, known := apiConfigValue(apiConfig, key)
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	_, _ = fmt.Fprintln(os.Stdout, value)

	return nil
}

func runConfigSet(key, value, apiFlag string) error {
	config := loadConfig()

	if isGlobalConfigKey(key) {
		return setGlobalConfig(config, key, value)
	}

	apiConfig, apiName, err := configuredAPI(config, apiFlag)
	if err != nil {
		return err
	}

	setter, known := apiConfigSetter(key)
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	err = setter(apiConfig, value)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Set", key, value, apiName)
}

func runConfigUnset(key, apiFlag string) error {
	config := loadConfig()

	if isGlobalConfigKey(key) {
		return unsetGlobalConfig(config, key)
	}

	apiConfig, apiName, err := configuredAPI(config, apiFlag)
	if err != nil {
		return err
	}

	err = unsetAPIConfigKey(apiConfig, key)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Unset", key, "", apiName)
}

func runConfigSetHeader(args []string, apiFlag string, prompt bool) error {
	name := args[0]

	var value string

	switch {
	case prompt:
		_, _ = fmt.Fprintf(os.Stdout, "%s: ", name)

		raw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read header value: %w", err)
		}

		value = string(raw)

		_, _ = fmt.Fprintln(os.Stdout)
	case len(args) == constants.TwoArguments:
		value = args[1]
	default:
		return ErrHeaderValueRequired
	}

	config := loadConfig()

	apiConfig, apiName, err := configuredAPI(config, apiFlag)
	if err != nil {
		return err
	}

	if apiConfig.Headers == nil {
		apiConfig.Headers = make(map[string]string)
	}

	apiConfig.Headers[name] = value

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// The value is never echoed back.
	_, _ = fmt.Fprintf(os.Stdout, "Set header '%s' for API '%s'\n", name, apiName)

	return nil
}

// configuredAPI resolves the API addressed by --api, or the current one,
// requiring it to exist in the configuration.
func configuredAPI(config *Config, apiFlag string) (*APIConfig, string, error) {
	name := apiFlag
	if name == "" {
		name = config.CurrentAPI
	}

	if name == "" {
		return nil, "", constants.ErrNoEndpointConfigured
	}

	apiConfig, exists := config.APIs[name]
	if !exists {
		return nil, "", fmt.Errorf("%w: %q", constants.ErrAPINotFound, name)
	}

	return apiConfig, name, nil
}

func isGlobalConfigKey(key string) bool {
	switch key {
	case "output", "no_color", "current_api":
		return true
	default:
		return false
	}
}

func globalConfigValue(config *Config, key string) string {
	switch key {
	case "output":
		return config.Output
	case "no_color":
		return strconv.FormatBool(config.NoColor)
	case "current_api":
		return config.CurrentAPI
	default:
		return ""
	}
}

// setGlobalConfig sets a global configuration value.
func setGlobalConfig(config *Config, key, value string) error {
	switch key {
	case "output":
		config.Output = value
	case "no_color":
		config.NoColor = value == "true" || value == "1"
	case "current_api":
		if _, exists := config.APIs[value]; !exists {
			return fmt.Errorf("%w: %q", constants.ErrAPINotFound, value)
		}

		config.CurrentAPI = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Set global", key, value, "")
}

// unsetGlobalConfig resets a global configuration value to its default.
func unsetGlobalConfig(config *Config, key string) error {
	switch key {
	case "output":
		config.Output = constants.FormatTable
	case "no_color":
		config.NoColor = false
	case "current_api":
		config.CurrentAPI = ""
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return outputConfigUpdateResult("Unset global", key, "", "")
}

// apiConfigSetter returns the mutation for an API-scoped config key.
func apiConfigSetter(key string) (func(*APIConfig, string) error, bool) {
	setters := map[string]func(*APIConfig, string) error{
		"endpoint": func(c *APIConfig, v string) error {
			c.Endpoint = normalizeEndpoint(v)

			return nil
		},
		"user_agent": func(c *APIConfig, v string) error {
			c.UserAgent = v

			return nil
		},
		"timeout": func(c *APIConfig, v string) error {
			_, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parsing timeout: %w", err)
			}

			c.Timeout = v

			return nil
		},
		"retry_max": func(c *APIConfig, v string) error {
			retryMax, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing retry_max: %w", err)
			}

			c.RetryMax = retryMax

			return nil
		},
		"cache_type": func(c *APIConfig, v string) error {
			switch hal.CacheType(v) {
			case hal.CacheTypeMemory, hal.CacheTypeNATS, hal.CacheTypeNone:
			default:
				return fmt.Errorf("%w: %q", ErrInvalidCacheType, v)
			}

			c.ensureCache().Type = v

			return nil
		},
		"cache_nats_urls": func(c *APIConfig, v string) error {
			c.ensureCache().NATSURLs = splitCommaList(v)

			return nil
		},
		"cache_nats_bucket": func(c *APIConfig, v string) error {
			c.ensureCache().NATSBucket = v

			return nil
		},
	}

	setter, exists := setters[key]

	return setter, exists
}

// apiConfigValue reads an API-scoped config key. Header values are
// always masked.
func apiConfigValue(apiConfig *APIConfig, key string) (string, bool) {
	if strings.HasPrefix(key, headerKeyPrefix) {
		name := strings.TrimPrefix(key, headerKeyPrefix)
		if _, exists := apiConfig.Headers[name]; exists {
			return constants.MaskedSecret, true
		}

		return "", true
	}

	switch key {
	case "endpoint":
		return apiConfig.Endpoint, true
	case "user_agent":
		return apiConfig.UserAgent, true
	case "timeout":
		return apiConfig.Timeout, true
	case "retry_max":
		return strconv.Itoa(apiConfig.RetryMax), true
	case "cache_type":
		if apiConfig.Cache == nil {
			return "", true
		}

		return apiConfig.Cache.Type, true
	case "cache_nats_urls":
		if apiConfig.Cache == nil {
			return "", true
		}

		return strings.Join(apiConfig.Cache.NATSURLs, ","), true
	case "cache_nats_bucket":
		if apiConfig.Cache == nil {
			return "", true
		}

		return apiConfig.Cache.NATSBucket, true
	default:
		return "", false
	}
}

// unsetAPIConfigKey clears an API-scoped config key. Headers are
// addressed as header.<name>.
func unsetAPIConfigKey(apiConfig *APIConfig, key string) error {
	if strings.HasPrefix(key, headerKeyPrefix) {
		delete(apiConfig.Headers, strings.TrimPrefix(key, headerKeyPrefix))

		return nil
	}

	switch key {
	case "user_agent":
		apiConfig.UserAgent = ""
	case "timeout":
		apiConfig.Timeout = ""
	case "retry_max":
		apiConfig.RetryMax = 0
	case "cache_type", "cache_nats_urls", "cache_nats_bucket":
		apiConfig.Cache = nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	return nil
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")

	list := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}

	return list
}

func loadConfig() *Config {
	config := &Config{
		Output:     viper.GetString("output"),
		NoColor:    viper.GetBool("no_color"),
		CurrentAPI: viper.GetString("current_api"),
		APIs:       make(map[string]*APIConfig),
	}

	for name, raw := range viper.GetStringMap("apis") {
		if apiMap, ok := raw.(map[string]interface{}); ok {
			config.APIs[name] = parseAPIConfig(apiMap)
		}
	}

	return config
}

// parseAPIConfig parses one API configuration from a raw viper map.
func parseAPIConfig(apiMap map[string]interface{}) *APIConfig {
	apiConfig := &APIConfig{}

	if endpoint, ok := apiMap["endpoint"].(string); ok {
		apiConfig.Endpoint = endpoint
	}

	if userAgent, ok := apiMap["user_agent"].(string); ok {
		apiConfig.UserAgent = userAgent
	}

	if timeout, ok := apiMap["timeout"].(string); ok {
		apiConfig.Timeout = timeout
	}

	if retryMax, ok := apiMap["retry_max"].(int); ok {
		apiConfig.RetryMax = retryMax
	}

	if headers, ok := apiMap["headers"].(map[string]interface{}); ok {
		apiConfig.Headers = make(map[string]string, len(headers))

		for name, value := range headers {
			if text, ok := value.(string); ok {
				apiConfig.Headers[name] = text
			}
		}
	}

	if cache, ok := apiMap["cache"].(map[string]interface{}); ok {
		apiConfig.Cache = parseCacheSettings(cache)
	}

	return apiConfig
}

func parseCacheSettings(cacheMap map[string]interface{}) *CacheSettings {
	settings := &CacheSettings{}

	if cacheType, ok := cacheMap["type"].(string); ok {
		settings.Type = cacheType
	}

	if bucket, ok := cacheMap["nats_bucket"].(string); ok {
		settings.NATSBucket = bucket
	}

	if urls, ok := cacheMap["nats_urls"].([]interface{}); ok {
		for _, raw := range urls {
			if url, ok := raw.(string); ok {
				settings.NATSURLs = append(settings.NATSURLs, url)
			}
		}
	}

	return settings
}

func saveConfigStruct(config *Config) error {
	configFile := configFilePath()

	err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configFilePath returns the active config file: the one viper loaded,
// or the default ~/.hal/config.yml when none was read.
func configFilePath() string {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yml"
	}

	return filepath.Join(home, ".hal", "config.yml")
}

// maskedConfig returns a deep copy with every header value replaced by
// the mask, so structured output never leaks secrets.
func maskedConfig(config *Config) *Config {
	masked := &Config{
		CurrentAPI: config.CurrentAPI,
		Output:     config.Output,
		NoColor:    config.NoColor,
		APIs:       make(map[string]*APIConfig, len(config.APIs)),
	}

	for name, apiConfig := range config.APIs {
		apiCopy := *apiConfig

		if len(apiConfig.Headers) > 0 {
			apiCopy.Headers = make(map[string]string, len(apiConfig.Headers))
			for header := range apiConfig.Headers {
				apiCopy.Headers[header] = constants.MaskedSecret
			}
		}

		masked.APIs[name] = &apiCopy
	}

	return masked
}

// displayConfigTable displays configuration in a table format.
func displayConfigTable(config *Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append([]string{"Output", config.Output})
	_ = table.Append([]string{"No Color", strconv.FormatBool(config.NoColor)})

	if config.CurrentAPI != "" {
		_ = table.Append([]string{"Current API", config.CurrentAPI})
	}

	_, _ = os.Stdout.WriteString("Global Configuration:\n")

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return displayAPIsConfigTable(config)
}

func displayAPIsConfigTable(config *Config) error {
	if len(config.APIs) == 0 {
		_, _ = os.Stdout.WriteString("\nNo APIs configured. Use 'hal target <endpoint>' to add one.\n")

		return nil
	}

	_, _ = os.Stdout.WriteString("\nConfigured APIs:\n")

	apiTable := tablewriter.NewWriter(os.Stdout)
	apiTable.Header("Name", "Endpoint", "Headers", "Cache", "Current")

	for _, name := range sortedAPINames(config) {
		apiConfig := config.APIs[name]

		current := ""
		if name == config.CurrentAPI {
			current = "*"
		}

		_ = apiTable.Append([]string{
			name,
			apiConfig.Endpoint,
			headerNames(apiConfig.Headers),
			cacheSummary(apiConfig.Cache),
			current,
		})
	}

	err := apiTable.Render()
	if err != nil {
		return fmt.Errorf("failed to render API config table: %w", err)
	}

	return nil
}

func sortedAPINames(config *Config) []string {
	names := make([]string, 0, len(config.APIs))
	for name := range config.APIs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// headerNames lists configured header names, values omitted.
func headerNames(headers map[string]string) string {
	if len(headers) == 0 {
		return "-"
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}

func cacheSummary(settings *CacheSettings) string {
	if settings == nil {
		return string(hal.CacheTypeMemory)
	}

	if hal.CacheType(settings.Type) == hal.CacheTypeNATS && settings.NATSBucket != "" {
		return fmt.Sprintf("%s (%s)", settings.Type, settings.NATSBucket)
	}

	return settings.Type
}

// outputConfigUpdateResult outputs configuration update results in the
// requested format.
func outputConfigUpdateResult(action, key, value, apiName string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	if apiName != "" {
		result["api"] = apiName
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(result)
	case constants.FormatYAML:
		return StandardYAMLRenderer(result)
	default:
		if apiName != "" {
			_, _ = fmt.Fprintf(os.Stdout, "%s %s for API '%s'\n", action, key, apiName)
		} else {
			_, _ = fmt.Fprintf(os.Stdout, "%s %s\n", action, key)
		}
	}

	return nil
}
