// Package export writes the enriched catalog to CSV or JSONL files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"backlog/internal/catalog"
)

// Formats lists the supported export formats.
var Formats = []string{"csv", "jsonl"}

// Write renders rows to w in the named format.
func Write(w io.Writer, format string, rows []catalog.ExportRow) error {
	switch format {
	case "csv":
		return writeCSV(w, rows)
	case "jsonl":
		return writeJSONL(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ToDir writes one timestamped file per requested format into dir and
// returns the created paths.
func ToDir(ctx context.Context, store *catalog.Store, dir string, formats []string) ([]string, error) {
	rows, err := store.ExportRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect export rows: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	var paths []string
	for _, format := range formats {
		path := filepath.Join(dir, fmt.Sprintf("backlog-%s.%s", stamp, format))
		if err := writeFile(path, format, rows); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path, format string, rows []catalog.ExportRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Write(file, format, rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s export: %w", format, err)
	}
	return file.Close()
}

var csvHeader = []string{
	"title", "platform", "year", "status", "rating",
	"main_hours", "main_extra_hours", "complete_hours", "votes",
	"confidence", "method", "decided_by",
}

func writeCSV(w io.Writer, rows []catalog.ExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Title,
			row.Platform,
			formatInt(row.Year),
			row.Status,
			formatFloat(row.Rating),
			formatFloat(row.Main),
			formatFloat(row.MainExtra),
			formatFloat(row.Complete),
			formatInt(row.Votes),
			formatFloat(row.Confidence),
			row.Method,
			row.DecidedBy,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

type jsonlRow struct {
	Title      string  `json:"title"`
	Platform   string  `json:"platform,omitempty"`
	Year       int     `json:"year,omitempty"`
	Status     string  `json:"status,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	Main       float64 `json:"main_hours,omitempty"`
	MainExtra  float64 `json:"main_extra_hours,omitempty"`
	Complete   float64 `json:"complete_hours,omitempty"`
	Votes      int     `json:"votes,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Method     string  `json:"method,omitempty"`
	DecidedBy  string  `json:"decided_by,omitempty"`
}

func writeJSONL(w io.Writer, rows []catalog.ExportRow) error {
	encoder := json.NewEncoder(w)
	for _, row := range rows {
		if err := encoder.Encode(jsonlRow(row)); err != nil {
			return err
		}
	}
	return nil
}

// formatInt and formatFloat render zero values as empty cells so
// unknowns stay visually distinct from real zeroes in spreadsheets.
func formatInt(value int) string {
	if value == 0 {
		return ""
	}
	return strconv.Itoa(value)
}

func formatFloat(value float64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
