// Package plot provides the command rendering spectrograms for a clip directory.
package plot

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

// Command creates the plot command.
func Command(settings *conf.Settings) *cobra.Command {
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "plot [clip dir] [plot dir]",
		Short: "Render spectrograms of every clip in a directory",
		Long: `Render one spectrogram per audio file in the clip directory using the selected
preprocess case. Without arguments the positive clip and plot directories from the
configuration are used.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clipDir, plotDir := settings.Output.PositiveClips, settings.Output.PositivePlots
			if len(args) > 0 {
				clipDir = args[0]
			}
			if len(args) > 1 {
				plotDir = args[1]
			}
			if cmd.Flags().Changed("skip-existing") {
				settings.Render.SkipExisting = skipExisting
			}

			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			summary, err := p.Plot(ctx, clipDir, plotDir)
			report.Summary(cmd.OutOrStdout(), summary)
			return err
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Leave spectrograms that already exist untouched")

	return cmd
}
