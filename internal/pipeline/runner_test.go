package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/catalog"
	"backlog/internal/config"
	"backlog/internal/hltb"
	"backlog/internal/logging"
	"backlog/internal/pipeline"
	"backlog/internal/testsupport"
)

// stubSearcher serves canned payloads keyed by search title and counts
// how often it is hit.
type stubSearcher struct {
	payloads map[string]string
	failures map[string]error
	calls    atomic.Int64
}

func (s *stubSearcher) Search(_ context.Context, title string) (*hltb.Response, error) {
	s.calls.Add(1)
	if err, ok := s.failures[title]; ok {
		return nil, err
	}
	raw, ok := s.payloads[title]
	if !ok {
		raw = `{"data":[]}`
	}
	candidates, err := hltb.ParseCandidates(raw)
	if err != nil {
		return nil, err
	}
	return &hltb.Response{Candidates: candidates, RawJSON: raw}, nil
}

func payloadFor(title string, year int, platform string, votes int) string {
	entry := map[string]any{
		"game_id":          1000 + year,
		"game_name":        title,
		"profile_platform": platform,
		"release_world":    year,
		"comp_main":        36000,
		"comp_plus":        54000,
		"comp_100":         90000,
		"comp_all_count":   votes,
	}
	raw, _ := json.Marshal(map[string]any{"data": []any{entry}})
	return string(raw)
}

func newTestRunner(t *testing.T, searcher hltb.Searcher) (*pipeline.Runner, *catalog.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return pipeline.NewRunner(cfg, store, searcher, logging.NewNop()), store, cfg
}

func seedGame(t *testing.T, store *catalog.Store, title, titleNorm, family string, year int) *catalog.Game {
	t.Helper()
	game, err := store.UpsertGame(context.Background(), &catalog.Game{
		Title: title, TitleNorm: titleNorm, PlatformFamily: family, Year: year,
	})
	require.NoError(t, err)
	return game
}

func TestRunMatchesQueuesAndSkips(t *testing.T) {
	searcher := &stubSearcher{payloads: map[string]string{
		"hollow knight": payloadFor("Hollow Knight", 2017, "PC, Nintendo Switch", 5200),
		"doom": `{"data":[
			{"game_id":1,"game_name":"Doom","profile_platform":"PC","release_world":1993,"comp_main":36000,"comp_all_count":2500},
			{"game_id":2,"game_name":"Doom","profile_platform":"PC","release_world":2016,"comp_main":40000,"comp_all_count":4100}
		]}`,
	}}
	runner, store, _ := newTestRunner(t, searcher)
	ctx := context.Background()

	matched := seedGame(t, store, "Hollow Knight", "hollow knight", "pc", 2017)
	queued := seedGame(t, store, "Doom", "doom", "pc", 0)
	missed := seedGame(t, store, "Some Obscure Homebrew", "some obscure homebrew", "pc", 2021)

	summary, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Stats.Matched)
	assert.Equal(t, 1, summary.Stats.Queued)
	assert.Equal(t, 1, summary.Stats.NoMatch)
	assert.Equal(t, 0, summary.Stats.Errored)
	assert.Equal(t, 3, summary.Stats.Fetched)

	gameMatch, err := store.MatchByGameID(ctx, matched.ID)
	require.NoError(t, err)
	require.NotNil(t, gameMatch)
	assert.Equal(t, catalog.MethodExact, gameMatch.Method)
	assert.Equal(t, catalog.DecidedAuto, gameMatch.DecidedBy)

	entry, err := store.ReviewByGameID(ctx, queued.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, entry.Candidates, 2)

	noMatch, err := store.MatchByGameID(ctx, missed.ID)
	require.NoError(t, err)
	assert.Nil(t, noMatch)

	run, err := store.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, summary.Stats, run.Stats)
}

func TestRunIsIdempotent(t *testing.T) {
	searcher := &stubSearcher{payloads: map[string]string{
		"hollow knight": payloadFor("Hollow Knight", 2017, "PC", 5200),
	}}
	runner, store, _ := newTestRunner(t, searcher)
	ctx := context.Background()

	seedGame(t, store, "Hollow Knight", "hollow knight", "pc", 2017)

	first, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stats.Matched)
	assert.Equal(t, 1, first.Stats.Fetched)

	// Second run: the game is resolved, so nothing is processed and
	// the source is not contacted again.
	callsAfterFirst := searcher.calls.Load()
	second, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.Total())
	assert.Equal(t, callsAfterFirst, searcher.calls.Load())
	assert.NotEqual(t, first.RunID, second.RunID)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunUsesCacheAcrossGames(t *testing.T) {
	searcher := &stubSearcher{payloads: map[string]string{
		"tetris": payloadFor("Tetris", 1989, "PC", 800),
	}}
	runner, store, cfg := newTestRunner(t, searcher)
	cfg.Match.Rematch = true
	ctx := context.Background()

	seedGame(t, store, "Tetris", "tetris", "pc", 1989)

	_, err := runner.Run(ctx)
	require.NoError(t, err)
	callsAfterFirst := searcher.calls.Load()

	// Rematch reprocesses the game but the query key hits the cache.
	rematchRunner := pipeline.NewRunner(cfg, store, searcher, logging.NewNop())
	summary, err := rematchRunner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Stats.Cached)
	assert.Equal(t, 0, summary.Stats.Fetched)
	assert.Equal(t, callsAfterFirst, searcher.calls.Load())
}

func TestRunCountsFetchFailures(t *testing.T) {
	searcher := &stubSearcher{
		payloads: map[string]string{"celeste": payloadFor("Celeste", 2018, "PC", 900)},
		failures: map[string]error{"broken game": fmt.Errorf("search: %w", hltb.ErrUnavailable)},
	}
	runner, store, _ := newTestRunner(t, searcher)
	ctx := context.Background()

	seedGame(t, store, "Celeste", "celeste", "pc", 2018)
	broken := seedGame(t, store, "Broken Game", "broken game", "pc", 2020)

	summary, err := runner.Run(ctx)
	require.NoError(t, err, "per-game fetch failures must not abort the run")
	assert.Equal(t, 1, summary.Stats.Matched)
	assert.Equal(t, 1, summary.Stats.Errored)
	assert.Equal(t, 1, summary.Stats.ErrorKinds["fetch"])

	// The failed game stays unresolved and is retried next run.
	entry, err := store.ReviewByGameID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	searcher.failures = nil
	searcher.payloads["broken game"] = payloadFor("Broken Game", 2020, "PC", 50)
	retry, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Stats.Matched)
	assert.Equal(t, 0, retry.Stats.Errored)
}

func TestRunLockRejectsConcurrentRun(t *testing.T) {
	searcher := &stubSearcher{}
	runner, store, _ := newTestRunner(t, searcher)

	holder := flock.New(store.LockPath())
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = holder.Unlock() }()

	_, err = runner.Run(context.Background())
	require.ErrorIs(t, err, pipeline.ErrAlreadyRunning)
}

func TestRunEmptyCatalog(t *testing.T) {
	searcher := &stubSearcher{}
	runner, _, _ := newTestRunner(t, searcher)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Stats.Total())
	assert.Zero(t, searcher.calls.Load())
}

