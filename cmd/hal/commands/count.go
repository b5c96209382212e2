package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CountInfo represents a collection count.
type CountInfo struct {
	Particle string `json:"particle" yaml:"particle"`
	Count    int    `json:"count"    yaml:"count"`
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "count PARTICLE",
		Short: "Count records in a collection",
		Long:  "Report the total number of records a HAL collection endpoint holds, honoring filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCountCommand(cmd, args[0], filters)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as key=value (repeatable)")

	return cmd
}

func runCountCommand(cmd *cobra.Command, particle string, filters []string) error {
	client, err := CreateClient(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	// A single-record page is enough to obtain the collection metadata
	// the count is answered from.
	params := hal.NewParams().WithCount(1)

	err = applyFilterArgs(params, filters)
	if err != nil {
		return err
	}

	ctx := context.Background()
	finder := client.Model(particle)

	_, err = finder.Find(ctx, hal.KindAll, params)
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", particle, err)
	}

	total, ok := finder.FindCount(ctx)
	if !ok {
		return fmt.Errorf("counting %s: %w", particle, ErrCountUnavailable)
	}

	return outputCountInfo(CountInfo{Particle: particle, Count: total})
}

func outputCountInfo(info CountInfo) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(info)
	case constants.FormatYAML:
		return StandardYAMLRenderer(info)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Particle", "Count")

		_ = table.Append(info.Particle, strconv.Itoa(info.Count))

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	return nil
}
