package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/ingest"
	"backlog/internal/logging"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Import catalog entries from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				summary, err := ingest.File(cmd.Context(), store, args[0],
					logging.WithComponent(logger, "ingest"))
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d entries\n", summary.Imported)
				if summary.Skipped > 0 {
					fmt.Fprintf(out, "Skipped %d entries with unusable titles\n", summary.Skipped)
				}
				if summary.Ambiguous > 0 {
					fmt.Fprintf(out, "Left %d ambiguous entries unimported; add a year or platform to disambiguate\n",
						summary.Ambiguous)
				}
				return nil
			})
		},
	}
}
