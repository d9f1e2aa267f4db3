package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"backlog/internal/catalog"
	"backlog/internal/config"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve matches queued for human review",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewResolveCommand(ctx))
	reviewCmd.AddCommand(newReviewSkipCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games waiting for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				views, err := store.ReviewList(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "Review queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(views))
				for _, view := range views {
					best := "-"
					if len(view.Entry.Candidates) > 0 {
						top := view.Entry.Candidates[0]
						best = fmt.Sprintf("%s (%.2f)", top.Title, top.Confidence)
					}
					rows = append(rows, []string{
						strconv.FormatInt(view.Game.ID, 10),
						view.Game.Title,
						view.Game.Platform,
						formatYear(view.Game.Year),
						strconv.Itoa(len(view.Entry.Candidates)),
						best,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Platform", "Year", "Candidates", "Best candidate"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show the ranked candidates for one queued game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				game, err := store.GetGame(cmd.Context(), gameID)
				if err != nil {
					return err
				}
				entry, err := store.ReviewByGameID(cmd.Context(), gameID)
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("game %d is not in the review queue", gameID)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s", game.Title)
				if game.Platform != "" {
					fmt.Fprintf(out, " [%s]", game.Platform)
				}
				if game.Year != 0 {
					fmt.Fprintf(out, " (%d)", game.Year)
				}
				fmt.Fprintln(out)

				rows := make([][]string, 0, len(entry.Candidates))
				for i, candidate := range entry.Candidates {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						candidate.Title,
						strings.Join(candidate.Platforms, ", "),
						formatYear(candidate.Year),
						formatHours(candidate.Main),
						fmt.Sprintf("%.2f", candidate.Confidence),
						string(candidate.Method),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Candidate", "Platforms", "Year", "Main", "Confidence", "Method"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "Resolve with: backlog review resolve %d <#>\n", gameID)
				return nil
			})
		},
	}
}

func newReviewResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <game-id> <candidate-#>",
		Short: "Confirm a queued candidate as the match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			choice, err := strconv.Atoi(args[1])
			if err != nil || choice < 1 {
				return fmt.Errorf("invalid candidate number %q", args[1])
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entry, err := store.ReviewByGameID(cmd.Context(), gameID)
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("game %d is not in the review queue", gameID)
				}
				if choice > len(entry.Candidates) {
					return fmt.Errorf("game %d has only %d candidates", gameID, len(entry.Candidates))
				}
				candidate := entry.Candidates[choice-1]

				game, err := store.GetGame(cmd.Context(), gameID)
				if err != nil {
					return err
				}
				result, err := store.ResultByQueryKey(cmd.Context(), queryKeyFor(game))
				if err != nil {
					return err
				}
				if result == nil {
					return fmt.Errorf("no cached result for game %d; run enrich again", gameID)
				}

				err = store.RecordMatch(cmd.Context(), &catalog.Match{
					GameID:     gameID,
					HLTBID:     result.ID,
					Confidence: candidate.Confidence,
					Method:     catalog.MethodManual,
					DecidedBy:  catalog.DecidedManual,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matched %q to %q\n", game.Title, candidate.Title)
				return nil
			})
		},
	}
}

func newReviewSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <game-id>",
		Short: "Drop a game from the review queue without matching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entry, err := store.ReviewByGameID(cmd.Context(), gameID)
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("game %d is not in the review queue", gameID)
				}
				if err := store.DeleteReview(cmd.Context(), gameID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed game %d from the review queue\n", gameID)
				return nil
			})
		},
	}
}

func parseGameID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid game id %q", raw)
	}
	return id, nil
}
