// Package ingest imports catalog entries from CSV or JSON files,
// normalizing titles and platforms before they reach the store.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"backlog/internal/catalog"
	"backlog/internal/normalize"
)

// Record is one raw catalog entry as it appears in an import file.
type Record struct {
	Title    string  `json:"title"`
	Platform string  `json:"platform,omitempty"`
	Year     int     `json:"year,omitempty"`
	Status   string  `json:"status,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	SourceID string  `json:"source_id,omitempty"`
}

// Summary reports what an import did.
type Summary struct {
	Imported  int
	Skipped   int
	Ambiguous int
}

// File imports a catalog file, choosing the decoder by extension.
func File(ctx context.Context, store *catalog.Store, path string, logger *slog.Logger) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FromCSV(ctx, store, file, logger)
	case ".json":
		return FromJSON(ctx, store, file, logger)
	default:
		return nil, fmt.Errorf("unsupported import format %q, expected .csv or .json", filepath.Ext(path))
	}
}

// FromJSON imports records from a JSON array.
func FromJSON(ctx context.Context, store *catalog.Store, r io.Reader, logger *slog.Logger) (*Summary, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode import json: %w", err)
	}
	return importRecords(ctx, store, records, logger)
}

// FromCSV imports records from a CSV stream. The first row is a header
// naming the columns; column order is free and unknown columns are
// ignored.
func FromCSV(ctx context.Context, store *catalog.Store, r io.Reader, logger *slog.Logger) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, errors.New("csv header is missing the title column")
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		record := Record{
			Title:    field(row, columns, "title"),
			Platform: field(row, columns, "platform"),
			Status:   field(row, columns, "status"),
			SourceID: field(row, columns, "source_id"),
		}
		if raw := field(row, columns, "year"); raw != "" {
			if record.Year, err = strconv.Atoi(raw); err != nil {
				return nil, fmt.Errorf("csv line %d: bad year %q", line, raw)
			}
		}
		if raw := field(row, columns, "rating"); raw != "" {
			if record.Rating, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("csv line %d: bad rating %q", line, raw)
			}
		}
		records = append(records, record)
	}
	return importRecords(ctx, store, records, logger)
}

func field(row []string, columns map[string]int, name string) string {
	index, ok := columns[name]
	if !ok || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func importRecords(ctx context.Context, store *catalog.Store, records []Record, logger *slog.Logger) (*Summary, error) {
	summary := &Summary{}
	for _, record := range records {
		game := toGame(record)
		if game.TitleNorm == "" {
			summary.Skipped++
			logger.Warn("skipping record with empty normalized title", "title", record.Title)
			continue
		}

		_, err := store.UpsertGame(ctx, game)
		if errors.Is(err, catalog.ErrAmbiguousGame) {
			summary.Ambiguous++
			logger.Warn("ambiguous record left unimported", "title", record.Title, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", record.Title, err)
		}
		summary.Imported++
	}
	return summary, nil
}

func toGame(record Record) *catalog.Game {
	platformNorm, family := normalize.Platform(record.Platform)
	return &catalog.Game{
		Title:          strings.TrimSpace(record.Title),
		TitleNorm:      normalize.Title(record.Title),
		Platform:       strings.TrimSpace(record.Platform),
		PlatformNorm:   platformNorm,
		PlatformFamily: family,
		Year:           record.Year,
		Status:         strings.TrimSpace(record.Status),
		Rating:         record.Rating,
		SourceID:       strings.TrimSpace(record.SourceID),
	}
}
