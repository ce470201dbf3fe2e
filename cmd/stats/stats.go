// Package stats provides the command summarizing an annotation table.
package stats

import (
	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

// Command creates the stats command.
func Command(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the mean call duration and other annotation statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			stats, err := p.Stats(output)
			if err != nil {
				return err
			}
			report.AnnotationStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the table with the end column added to this path")

	return cmd
}
