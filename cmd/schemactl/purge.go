package main

import (
	"attrschema/internal/usecase"

	"github.com/spf13/cobra"
)

func newPurgeCmd(root *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Run the value purges that are due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var purgeUC usecase.PurgeUsecase
			stop, err := startApp(cmd.Context(), storageOptions(), &purgeUC)
			if err != nil {
				return err
			}
			defer stop()

			report, err := purgeUC.RunDue(actorContext(cmd.Context(), root), limit)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum purges to run; 0 uses the configured batch size")

	return cmd
}
