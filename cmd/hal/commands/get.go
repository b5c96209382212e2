package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var embed []string

	cmd := &cobra.Command{
		Use:   "get PARTICLE ID",
		Short: "Fetch a single record by ID",
		Long:  "Fetch one record from a HAL collection endpoint by its identifier",
		Args:  cobra.ExactArgs(constants.TwoArguments),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetCommand(cmd, args[0], args[1], embed)
		},
	}

	cmd.Flags().StringSliceVar(&embed, "embed", nil, "related resources to embed")

	return cmd
}

func runGetCommand(cmd *cobra.Command, particle, id string, embed []string) error {
	client, err := CreateClient(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	params := hal.NewParams().WithFilter("id", id)
	if len(embed) > 0 {
		params = params.WithEmbed(embed...)
	}

	ctx := context.Background()

	result, err := client.Model(particle).Find(ctx, hal.KindFirst, params)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", particle, err)
	}

	if result.Empty() {
		return fmt.Errorf("%s '%s': %w", particle, id, ErrRecordNotFound)
	}

	return outputRecord(result.Record)
}

func outputRecord(record hal.Record) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(record)
	case constants.FormatYAML:
		return StandardYAMLRenderer(record)
	default:
		return renderRecordDetails(record)
	}
}
