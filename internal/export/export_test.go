package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/catalog"
	"backlog/internal/export"
	"backlog/internal/testsupport"
)

var sampleRows = []catalog.ExportRow{
	{
		Title: "Journey", Platform: "PS3", Year: 2012, Status: "completed", Rating: 9.5,
		Main: 2.5, MainExtra: 3, Complete: 6, Votes: 1200,
		Confidence: 1, Method: "exact", DecidedBy: "auto",
	},
	{Title: "Unmatched Game", Platform: "PC", Year: 2024},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, "csv", sampleRows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "title", records[0][0])
	assert.Equal(t, []string{"Journey", "PS3", "2012", "completed", "9.5",
		"2.5", "3", "6", "1200", "1", "exact", "auto"}, records[1])
	assert.Equal(t, "", records[2][5], "unmatched games leave duration cells empty")
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, "jsonl", sampleRows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "Journey", first["title"])
	assert.Equal(t, 2.5, first["main_hours"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	_, hasMain := second["main_hours"]
	assert.False(t, hasMain, "zero durations are omitted")
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	require.Error(t, export.Write(&bytes.Buffer{}, "xml", nil))
}

func TestToDirWritesOneFilePerFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.UpsertGame(context.Background(), &catalog.Game{
		Title: "Journey", TitleNorm: "journey", PlatformFamily: "playstation", Year: 2012,
	})
	require.NoError(t, err)

	paths, err := export.ToDir(context.Background(), store, cfg.Paths.ExportDir, []string{"csv", "jsonl"})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, paths[0], ".csv")
	assert.Contains(t, paths[1], ".jsonl")
}
