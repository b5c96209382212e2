package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// TargetInfo represents the current target information.
type TargetInfo struct {
	API      string `json:"api,omitempty" yaml:"api,omitempty"`
	Endpoint string `json:"endpoint"      yaml:"endpoint"`
	Cache    string `json:"cache"         yaml:"cache"`
	Headers  int    `json:"headers"       yaml:"headers"`
}

// NewTargetCommand creates the target command.
func NewTargetCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "target [ENDPOINT]",
		Short: "Set or show the targeted API",
		Long:  "Set the HAL API endpoint every other command talks to, or show the current target when called with no arguments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return showTarget()
			}

			return setTarget(args[0], name)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "short name to store the API under")

	return cmd
}

func showTarget() error {
	config := loadConfig()

	if config.CurrentAPI == "" {
		_, _ = fmt.Fprintf(os.Stdout, "No API targeted. Use 'hal target <endpoint>' to set one.\n")

		return nil
	}

	apiConfig, exists := config.APIs[config.CurrentAPI]
	if !exists {
		_, _ = fmt.Fprintf(os.Stdout, "Current API '%s' not found in configuration.\n", config.CurrentAPI)

		return nil
	}

	info := TargetInfo{
		API:      config.CurrentAPI,
		Endpoint: apiConfig.Endpoint,
		Cache:    cacheSummary(apiConfig.Cache),
		Headers:  len(apiConfig.Headers),
	}

	return outputTargetInfo(info)
}

func setTarget(endpoint, name string) error {
	config := loadConfig()

	// A known short name switches the current API without touching it.
	if _, exists := config.APIs[endpoint]; exists && name == "" {
		config.CurrentAPI = endpoint

		err := saveConfigStruct(config)
		if err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		_, _ = fmt.Fprintf(os.Stdout, "Targeted API: %s\n", endpoint)

		return nil
	}

	normalized := normalizeEndpoint(endpoint)

	key := name
	if key == "" {
		key = hostKeyFromEndpoint(normalized)
	}

	if config.APIs == nil {
		config.APIs = make(map[string]*APIConfig)
	}

	apiConfig, exists := config.APIs[key]
	if !exists {
		apiConfig = &APIConfig{}
		config.APIs[key] = apiConfig
	}

	apiConfig.Endpoint = normalized
	config.CurrentAPI = key

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Targeted API '%s' at %s\n", key, normalized)

	return nil
}

// outputTargetInfo outputs target information in the requested format.
func outputTargetInfo(info TargetInfo) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(info)
	case constants.FormatYAML:
		return StandardYAMLRenderer(info)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("API", info.API)
		_ = table.Append("Endpoint", info.Endpoint)
		_ = table.Append("Cache", info.Cache)
		_ = table.Append("Headers", fmt.Sprintf("%d", info.Headers))

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	return nil
}

// normalizeEndpoint trims the endpoint and defaults the scheme to https.
func normalizeEndpoint(endpoint string) string {
	normalized := strings.TrimSpace(endpoint)
	normalized = strings.TrimSuffix(normalized, "/")

	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}

	return normalized
}

// hostKeyFromEndpoint derives a config key from the endpoint host. The
// port is kept so endpoints on the same host stay distinct.
func hostKeyFromEndpoint(endpoint string) string {
	key := strings.TrimPrefix(endpoint, "https://")
	key = strings.TrimPrefix(key, "http://")

	if idx := strings.Index(key, "/"); idx >= 0 {
		key = key[:idx]
	}

	return key
}
