package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type listOptions struct {
	filters  []string
	page     int
	count    int
	embed    []string
	allPages bool
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list PARTICLE",
		Short: "List records from a collection",
		Long:  "List records from a HAL collection endpoint with optional filters and paging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListCommand(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "filter as key=value (repeatable)")
	cmd.Flags().IntVar(&opts.page, "page", 0, "page number to fetch")
	cmd.Flags().IntVar(&opts.count, "count", 0, "records per page")
	cmd.Flags().StringSliceVar(&opts.embed, "embed", nil, "related resources to embed")
	cmd.Flags().BoolVar(&opts.allPages, "all", false, "fetch all pages")

	return cmd
}

func runListCommand(cmd *cobra.Command, particle string, opts *listOptions) error {
	client, err := CreateClient(cmd.Flag("api").Value.String())
	if err != nil {
		return err
	}

	params := hal.NewParams()

	err = applyFilterArgs(params, opts.filters)
	if err != nil {
		return err
	}

	if opts.page > 0 {
		params = params.WithPage(opts.page)
	}

	if opts.count > 0 {
		params = params.WithCount(opts.count)
	}

	if len(opts.embed) > 0 {
		params = params.WithEmbed(opts.embed...)
	}

	ctx := context.Background()
	finder := client.Model(particle)

	var result *hal.Result

	if opts.allPages {
		result, err = finder.FindAll(ctx, params)
	} else {
		result, err = finder.Find(ctx, hal.KindAll, params)
	}

	if err != nil {
		return fmt.Errorf("failed to list %s: %w", particle, err)
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(result.Records)
	case constants.FormatYAML:
		return StandardYAMLRenderer(result.Records)
	default:
		return renderRecordList(ctx, finder, particle, result, opts.allPages)
	}
}

func renderRecordList(ctx context.Context, finder hal.Finder, particle string, result *hal.Result, allPages bool) error {
	if result.Empty() {
		_, _ = fmt.Fprintf(os.Stdout, "No %s found\n", particle)

		return nil
	}

	err := renderRecordsTable(result.Records)
	if err != nil {
		return err
	}

	if allPages {
		return nil
	}

	// The footer is answered from the collection metadata of the page
	// just fetched, no extra request.
	if total, ok := finder.FindCount(ctx); ok && total > result.Len() {
		_, _ = fmt.Fprintf(os.Stdout, "\nShowing %d of %d. Use --all to fetch every page.\n", result.Len(), total)
	}

	return nil
}
