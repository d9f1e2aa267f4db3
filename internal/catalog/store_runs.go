package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records the beginning of a pipeline execution and returns
// its identifier.
func (s *Store) StartRun(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO etl_runs (id, started_at) VALUES (?, ?)",
		run.ID, formatTime(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// FinishRun closes out a run with its final stats. A run that never
// reaches FinishRun keeps a NULL finished_at, which marks it as
// interrupted.
func (s *Store) FinishRun(ctx context.Context, runID string, stats RunStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode run stats: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE etl_runs SET finished_at = ?, stats_json = ? WHERE id = ?",
		formatTime(time.Now().UTC()), string(payload), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, stats_json FROM etl_runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns runs newest first, limited to the given count when
// limit is positive.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, started_at, finished_at, stats_json FROM etl_runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		statsJSON  sql.NullString
	)
	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &statsJSON); err != nil {
		return nil, err
	}
	var err error
	if run.StartedAt, err = parseTimeString(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at for run %s: %w", run.ID, err)
	}
	if finishedAt.Valid {
		finished, err := parseTimeString(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at for run %s: %w", run.ID, err)
		}
		run.FinishedAt = &finished
	}
	if statsJSON.Valid && statsJSON.String != "" {
		if err := json.Unmarshal([]byte(statsJSON.String), &run.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}
