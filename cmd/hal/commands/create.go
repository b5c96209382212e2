package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var (
		data string
		file string
	)

	cmd := &cobra.Command{
		Use:   "create PARTICLE",
		Short: "Create a record",
		Long:  "Create a record on a HAL collection endpoint from an inline JSON payload or a payload file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateCommand(cmd, args[0], data, file)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "record payload as inline JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON or YAML payload file")

	return cmd
}

func runCreateCommand(cmd *cobra.Command, particle, data, file string) error {
	payload, err := parsePayload(data, file)
	if err != nil {
		return err
	}

	client, err := CreateClient(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()

	result, err := client.Model(particle).Create(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", particle, err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(result.Record)
	case constants.FormatYAML:
		return StandardYAMLRenderer(result.Record)
	default:
		_, _ = fmt.Fprintf(os.Stdout, "Created %s\n", particle)

		if len(result.Record) > 0 {
			return renderRecordDetails(result.Record)
		}
	}

	return nil
}

// parsePayload builds the record to create from --data or --file. Files
// may be JSON or YAML.
func parsePayload(data, file string) (hal.Record, error) {
	switch {
	case data != "" && file != "":
		return nil, ErrPayloadConflict
	case data != "":
		var record hal.Record

		err := json.Unmarshal([]byte(data), &record)
		if err != nil {
			return nil, fmt.Errorf("parsing --data payload: %w", err)
		}

		return record, nil
	case file != "":
		if err := validatePayloadPath(file); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return nil, fmt.Errorf("reading payload file: %w", err)
		}

		var record hal.Record

		if err := json.Unmarshal(raw, &record); err == nil {
			return record, nil
		}

		if err := yaml.Unmarshal(raw, &record); err == nil {
			return record, nil
		}

		return nil, fmt.Errorf("%w: %s", ErrPayloadNotParseable, file)
	default:
		return nil, ErrPayloadRequired
	}
}

// validatePayloadPath rejects payload paths that escape the working
// directory and anything that is not a regular file.
func validatePayloadPath(file string) error {
	cleanPath := filepath.Clean(file)

	if filepath.IsAbs(file) {
		if cleanPath != file {
			return constants.ErrDirectoryTraversalDetected
		}
	} else if strings.HasPrefix(cleanPath, "..") {
		return constants.ErrDirectoryTraversalDetected
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("payload file not accessible: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", constants.ErrNotRegularFile, cleanPath)
	}

	return nil
}
