// Package runs provides the command listing runs recorded in the catalog.
package runs

import (
	"github.com/spf13/cobra"

	"github.com/orcasound/orcaprep/cmd/report"
	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/conf"
)

// Command creates the runs command.
func Command(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Open(settings.Catalog.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			report.Runs(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show, 0 for all")

	return cmd
}
