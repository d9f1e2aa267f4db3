package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/catalog"
	"backlog/internal/ingest"
	"backlog/internal/logging"
	"backlog/internal/testsupport"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(testsupport.NewConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFromCSVImportsAndNormalizes(t *testing.T) {
	store := newStore(t)
	csv := strings.Join([]string{
		"title,platform,year,status,rating",
		`"The Witcher 3: Wild Hunt — Game of the Year Edition",PC,2015,completed,9.5`,
		"Chrono Trigger,SNES,1995,backlog,",
		"Chrono Trigger,PlayStation,1999,backlog,",
	}, "\n")

	summary, err := ingest.FromCSV(context.Background(), store, strings.NewReader(csv), logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)
	assert.Zero(t, summary.Skipped)

	games, err := store.ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 3, "same title on different platforms stays distinct")

	witcher := games[len(games)-1]
	assert.Equal(t, "the witcher 3 wild hunt", witcher.TitleNorm)
	assert.Equal(t, "pc", witcher.PlatformFamily)
	assert.Equal(t, 9.5, witcher.Rating)
}

func TestFromCSVRejectsMissingTitleColumn(t *testing.T) {
	store := newStore(t)
	_, err := ingest.FromCSV(context.Background(), store,
		strings.NewReader("name,year\nfoo,2001\n"), logging.NewNop())
	require.Error(t, err)
}

func TestFromJSONCountsAmbiguousAndSkipped(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := `[
		{"title": "Doom", "platform": "PC", "year": 1993},
		{"title": "Doom", "platform": "PC"},
		{"title": "(TM)"}
	]`
	summary, err := ingest.FromJSON(ctx, store, strings.NewReader(payload), logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Ambiguous, "year-less duplicate must not merge into the 1993 row")
	assert.Equal(t, 1, summary.Skipped, "titles that normalize to nothing are dropped")
}

func TestFromJSONIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	payload := `[{"title": "Hades", "platform": "PC", "year": 2020, "status": "playing"}]`

	for i := 0; i < 2; i++ {
		summary, err := ingest.FromJSON(ctx, store, strings.NewReader(payload), logging.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Imported)
	}

	games, err := store.ListGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}
