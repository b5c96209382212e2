package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the HAL CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type versionInfo struct {
				Version   string `json:"version" yaml:"version"`
				Commit    string `json:"commit" yaml:"commit"`
				Built     string `json:"built" yaml:"built"`
				GoVersion string `json:"go_version" yaml:"go_version"`
				Platform  string `json:"platform" yaml:"platform"`
			}

			info := versionInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			switch viper.GetString("output") {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(info)
			default:
				fmt.Printf("hal version %s\n", info.Version)
				fmt.Printf("  commit:   %s\n", info.Commit)
				fmt.Printf("  built:    %s\n", info.Built)
				fmt.Printf("  go:       %s\n", info.GoVersion)
				fmt.Printf("  platform: %s\n", info.Platform)
			}

			return nil
		},
	}
}
