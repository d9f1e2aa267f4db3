package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and match statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Count"},
					[][]string{
						{"Games", strconv.Itoa(stats.Games)},
						{"Matched", strconv.Itoa(stats.Matches)},
						{"In review queue", strconv.Itoa(stats.Queue)},
						{"Unresolved", strconv.Itoa(stats.Unresolved)},
						{"Cached lookups", strconv.Itoa(stats.CacheEntries)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))

				if len(stats.Methods) > 0 {
					methods := make([]string, 0, len(stats.Methods))
					for method := range stats.Methods {
						methods = append(methods, method)
					}
					sort.Strings(methods)

					rows := make([][]string, 0, len(methods))
					for _, method := range methods {
						rows = append(rows, []string{method, strconv.Itoa(stats.Methods[method])})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Match method", "Count"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent enrichment runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					state := "interrupted"
					duration := "-"
					if run.FinishedAt != nil {
						state = "finished"
						duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
					}
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						state,
						duration,
						strconv.Itoa(run.Stats.Matched),
						strconv.Itoa(run.Stats.Queued),
						strconv.Itoa(run.Stats.NoMatch),
						strconv.Itoa(run.Stats.Errored),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "State", "Duration", "Matched", "Queued", "No match", "Errored"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
