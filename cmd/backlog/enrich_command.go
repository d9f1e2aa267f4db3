package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/hltb"
	"backlog/internal/logging"
	"backlog/internal/pipeline"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var rematch bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fetch play-time candidates and match unresolved games",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if rematch {
					cfg.Match.Rematch = true
				}
				client := hltb.NewClient(cfg.HLTB, logging.WithComponent(logger, "hltb"))
				runner := pipeline.NewRunner(cfg, store, client,
					logging.WithComponent(logger, "pipeline"))

				summary, err := runner.Run(cmd.Context())
				if errors.Is(err, pipeline.ErrAlreadyRunning) {
					return errors.New("an enrichment run is already in progress for this database")
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
				fmt.Fprintln(out, renderTable(
					[]string{"Outcome", "Count"},
					[][]string{
						{"Matched", fmt.Sprintf("%d", summary.Stats.Matched)},
						{"Queued for review", fmt.Sprintf("%d", summary.Stats.Queued)},
						{"No match", fmt.Sprintf("%d", summary.Stats.NoMatch)},
						{"Errored", fmt.Sprintf("%d", summary.Stats.Errored)},
						{"Fetched", fmt.Sprintf("%d", summary.Stats.Fetched)},
						{"Cache hits", fmt.Sprintf("%d", summary.Stats.Cached)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rematch, "rematch", false, "Reprocess games that already have a match or review entry")
	return cmd
}
