package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatsFlag []string
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the enriched catalog to CSV or JSONL files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				formats := cfg.Export.Formats
				if len(formatsFlag) > 0 {
					formats = formatsFlag
				}
				for i, format := range formats {
					formats[i] = strings.ToLower(strings.TrimSpace(format))
				}

				dir := cfg.Paths.ExportDir
				if strings.TrimSpace(dirFlag) != "" {
					expanded, err := config.ExpandPath(dirFlag)
					if err != nil {
						return err
					}
					dir = expanded
				}

				paths, err := export.ToDir(cmd.Context(), store, dir, formats)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, path := range paths {
					fmt.Fprintf(out, "Wrote %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&formatsFlag, "format", nil,
		fmt.Sprintf("Export formats (%s); defaults to the configured formats", strings.Join(export.Formats, ", ")))
	cmd.Flags().StringVarP(&dirFlag, "output", "o", "", "Destination directory")
	return cmd
}
