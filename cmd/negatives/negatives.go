// Package negatives provides the command drawing the random background table.
package negatives

import (
	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

// Command creates the negatives command.
func Command(settings *conf.Settings) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "negatives",
		Short: "Draw background selections that avoid every annotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "" {
				settings.Output.NegativesTable = table
			}

			p, err := pipeline.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			summary, err := p.Negatives(cmd.Context())
			report.Summary(cmd.OutOrStdout(), summary)
			return err
		},
	}

	cmd.Flags().StringVarP(&table, "output", "o", "", "Background table path (default from output.negativestable)")

	return cmd
}
