package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the database for invariant violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				issues, err := store.Verify(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(issues) == 0 {
					fmt.Fprintln(out, "Catalog is consistent")
					return nil
				}
				for _, issue := range issues {
					fmt.Fprintln(out, issue.String())
				}
				return fmt.Errorf("found %d integrity issues", len(issues))
			})
		},
	}
}
