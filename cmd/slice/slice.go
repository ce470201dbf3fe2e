// Package slice provides the command cutting clips for the rows of a selection table.
package slice

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

// Command creates the slice command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		column   string
		negative bool
	)

	cmd := &cobra.Command{
		Use:   "slice [table]",
		Short: "Cut one clip per row of a selection table",
		Long: `Cut a clip of --calltime seconds for every row of a tab separated table with a
filename (or wav_filename) column. The clip starts at the value of --column.
Without an argument the annotation table given by --tsvpath is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := pipeline.SliceOptions{
				Table:     settings.Input.AnnotationPath,
				Column:    column,
				OutputDir: settings.Output.PositiveClips,
				Prefix:    settings.Output.PositivePrefix,
				Negative:  negative,
			}
			if len(args) == 1 {
				opts.Table = args[0]
			}
			if negative {
				opts.OutputDir = settings.Output.NegativeClips
				opts.Prefix = settings.Output.NegativePrefix
			}

			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			summary, err := p.Slice(ctx, opts)
			report.Summary(cmd.OutOrStdout(), summary)
			return err
		},
	}

	cmd.Flags().StringVar(&column, "column", annotation.ColumnStart, "Column holding the clip start in seconds")
	cmd.Flags().BoolVar(&negative, "negative", false, "Write background clips to --outputpathnegative")

	return cmd
}
