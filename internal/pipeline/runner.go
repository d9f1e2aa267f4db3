// Package pipeline coordinates enrichment runs: fetch candidates for
// every unresolved game, decide each one, and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/hltb"
	"backlog/internal/match"
)

// ErrAlreadyRunning signals that another process holds the run lock
// for this database.
var ErrAlreadyRunning = errors.New("another enrichment run is already in progress")

// Runner executes enrichment runs against one catalog store.
type Runner struct {
	cfg      *config.Config
	store    *catalog.Store
	searcher hltb.Searcher
	policy   match.Policy
	logger   *slog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, store *catalog.Store, searcher hltb.Searcher, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		policy:   match.PolicyFromConfig(cfg.Match),
		logger:   logger,
	}
}

// Summary reports one finished run.
type Summary struct {
	RunID    string
	Stats    catalog.RunStats
	Duration time.Duration
}

// fetched carries the cached result for one game through the decide
// stage. A nil result with a non-nil err means the fetch failed; the
// game is counted as errored and skipped.
type fetched struct {
	game   catalog.Game
	result *catalog.Result
	err    error
}

// Run executes one full enrichment pass. A file lock serializes runs
// per database; a second concurrent invocation fails fast with
// ErrAlreadyRunning. Per-game failures are counted, not fatal: the run
// finishes and reports them in its stats.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	lock := flock.New(r.store.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	defer func() { _ = lock.Unlock() }()

	games, err := r.store.GamesToProcess(ctx, r.cfg.Match.Rematch)
	if err != nil {
		return nil, fmt.Errorf("list games to process: %w", err)
	}

	run, err := r.store.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	r.logger.Info("run started", "run_id", run.ID, "games", len(games))

	stats := catalog.RunStats{ErrorKinds: make(map[string]int)}
	results := r.fetchStage(ctx, games, &stats)

	for _, item := range results {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if item.err != nil {
			stats.Errored++
			kind := "fetch"
			if errors.Is(item.err, catalog.ErrEmptyTitleNorm) {
				kind = "normalization"
			}
			stats.ErrorKinds[kind]++
			r.logger.Warn("game not processed", "game_id", item.game.ID,
				"title", item.game.Title, "kind", kind, "error", item.err)
			continue
		}
		if err := r.decideGame(ctx, item.game, item.result, &stats); err != nil {
			stats.Errored++
			stats.ErrorKinds["store"]++
			r.logger.Warn("decision not recorded", "game_id", item.game.ID,
				"title", item.game.Title, "error", err)
		}
	}

	if len(stats.ErrorKinds) == 0 {
		stats.ErrorKinds = nil
	}
	if err := r.store.FinishRun(ctx, run.ID, stats); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	summary := &Summary{RunID: run.ID, Stats: stats, Duration: time.Since(run.StartedAt)}
	r.logger.Info("run finished", "run_id", run.ID,
		"matched", stats.Matched, "queued", stats.Queued, "no_match", stats.NoMatch,
		"errored", stats.Errored, "fetched", stats.Fetched, "cached", stats.Cached,
		"duration", summary.Duration)
	return summary, nil
}

// fetchStage resolves a cached result for every game, hitting the
// candidate source only on cache misses. Fetches run concurrently up
// to the configured worker count; each goroutine writes its own slot.
func (r *Runner) fetchStage(ctx context.Context, games []catalog.Game, stats *catalog.RunStats) []fetched {
	results := make([]fetched, len(games))

	group, groupCtx := errgroup.WithContext(ctx)
	workers := r.cfg.Pipeline.FetchWorkers
	if workers <= 0 {
		workers = 1
	}
	group.SetLimit(workers)

	var fetchedCount, cachedCount atomic.Int64
	for i := range games {
		group.Go(func() error {
			game := games[i]
			results[i].game = game

			if strings.TrimSpace(game.TitleNorm) == "" {
				results[i].err = catalog.ErrEmptyTitleNorm
				return nil
			}

			query := hltb.Query{TitleNorm: game.TitleNorm, Year: game.Year, Family: game.PlatformFamily}
			cached, err := r.store.ResultByQueryKey(groupCtx, query.Key())
			if err != nil {
				results[i].err = err
				return nil
			}
			if cached != nil {
				cachedCount.Add(1)
				results[i].result = cached
				return nil
			}

			result, err := r.fetchOne(groupCtx, game, query)
			if err != nil {
				results[i].err = err
				return nil
			}
			fetchedCount.Add(1)
			results[i].result = result
			return nil
		})
	}
	_ = group.Wait()

	stats.Fetched = int(fetchedCount.Load())
	stats.Cached = int(cachedCount.Load())
	return results
}

func (r *Runner) fetchOne(ctx context.Context, game catalog.Game, query hltb.Query) (*catalog.Result, error) {
	resp, err := r.searcher.Search(ctx, game.TitleNorm)
	if err != nil {
		return nil, err
	}

	result := &catalog.Result{
		QueryKey: query.Key(),
		Title:    game.Title,
		RawJSON:  resp.RawJSON,
	}
	if len(resp.Candidates) > 0 {
		top := resp.Candidates[0]
		result.Title = top.Title
		result.Platforms = top.Platforms
		result.Year = top.Year
		result.Main = top.Main
		result.MainExtra = top.MainExtra
		result.Complete = top.Complete
		result.Votes = top.Votes
	}
	return r.store.UpsertResult(ctx, result)
}

// decideGame runs the decision ladder over a cached result and
// persists the outcome.
func (r *Runner) decideGame(ctx context.Context, game catalog.Game, result *catalog.Result, stats *catalog.RunStats) error {
	candidates, err := hltb.ParseCandidates(result.RawJSON)
	if err != nil {
		return err
	}

	decision := match.Decide(r.policy, game, candidates)
	switch decision.Outcome {
	case match.OutcomeMatch:
		err := r.store.RecordMatch(ctx, &catalog.Match{
			GameID:     game.ID,
			HLTBID:     result.ID,
			Confidence: decision.Best.Confidence,
			Method:     decision.Best.Method,
			DecidedBy:  catalog.DecidedAuto,
		})
		if err != nil {
			return err
		}
		stats.Matched++
		r.logger.Debug("matched", "game_id", game.ID, "title", game.Title,
			"confidence", decision.Best.Confidence, "method", decision.Best.Method)
	case match.OutcomeReview:
		payload := match.ReviewCandidates(decision.Candidates)
		if err := r.store.EnqueueReview(ctx, game.ID, payload, r.cfg.Match.Rematch); err != nil {
			return err
		}
		stats.Queued++
		r.logger.Debug("queued for review", "game_id", game.ID, "title", game.Title,
			"reason", decision.Reason)
	default:
		stats.NoMatch++
		r.logger.Debug("no match", "game_id", game.ID, "title", game.Title,
			"reason", decision.Reason)
	}
	return nil
}
