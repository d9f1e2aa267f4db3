package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertResult caches a candidate-source response under its query key.
// The first writer for a key wins; concurrent or repeated fetches for
// the same key return the already-cached row untouched.
func (s *Store) UpsertResult(ctx context.Context, result *Result) (*Result, error) {
	fetchedAt := result.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hltb_results (query_key, title, platforms, year, main,
		                          main_extra, complete, votes, raw_json, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (query_key) DO NOTHING`,
		result.QueryKey, result.Title,
		nullableString(joinPlatforms(result.Platforms)), nullableInt(result.Year),
		nullableFloat(result.Main), nullableFloat(result.MainExtra),
		nullableFloat(result.Complete), nullableInt(result.Votes),
		result.RawJSON, formatTime(fetchedAt))
	if err != nil {
		return nil, fmt.Errorf("upsert result %q: %w", result.QueryKey, err)
	}

	return s.ResultByQueryKey(ctx, result.QueryKey)
}

// ResultByQueryKey returns the cached response for a query key, or nil
// when the key has never been fetched.
func (s *Store) ResultByQueryKey(ctx context.Context, queryKey string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, query_key, title, platforms, year, main, main_extra,
		       complete, votes, raw_json, fetched_at
		FROM hltb_results WHERE query_key = ?`, queryKey)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("result by query key %q: %w", queryKey, err)
	}
	return result, nil
}

func scanResult(row rowScanner) (*Result, error) {
	var (
		result    Result
		platforms sql.NullString
		year      sql.NullInt64
		main      sql.NullFloat64
		mainExtra sql.NullFloat64
		complete  sql.NullFloat64
		votes     sql.NullInt64
		fetchedAt string
	)
	err := row.Scan(&result.ID, &result.QueryKey, &result.Title, &platforms,
		&year, &main, &mainExtra, &complete, &votes, &result.RawJSON, &fetchedAt)
	if err != nil {
		return nil, err
	}
	result.Platforms = splitPlatforms(platforms.String)
	result.Year = int(year.Int64)
	result.Main = main.Float64
	result.MainExtra = mainExtra.Float64
	result.Complete = complete.Float64
	result.Votes = int(votes.Int64)
	if result.FetchedAt, err = parseTimeString(fetchedAt); err != nil {
		return nil, fmt.Errorf("parse fetched_at for result %d: %w", result.ID, err)
	}
	return &result, nil
}
