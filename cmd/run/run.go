// Package run provides the command executing the full preprocessing pipeline.
package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

// Command creates the run command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract clips and render spectrograms for an annotation table",
		Long: `Slice a clip of --calltime seconds per annotation, draw an equal number of
background clips that avoid every annotation, and render a spectrogram of each
clip using the selected preprocess case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			summary, err := p.Run(ctx)
			if summary != nil {
				out := cmd.OutOrStdout()
				report.MeanDuration(out, summary.MeanDuration)
				report.Summary(out, summary)
			}
			return err
		},
	}

	return cmd
}
