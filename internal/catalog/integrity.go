package catalog

import (
	"context"
	"fmt"
)

// Issue is one integrity violation found by Verify.
type Issue struct {
	Table   string
	RowID   int64
	Problem string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s[%d]: %s", i.Table, i.RowID, i.Problem)
}

// Verify sweeps the database for invariant violations: games holding
// both a match and a review entry, references to missing rows, empty
// normalized titles, and out-of-range confidences. An empty slice
// means the catalog is consistent.
func (s *Store) Verify(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	checks := []struct {
		query   string
		table   string
		problem string
	}{
		{
			query: `SELECT m.game_id FROM matches m
			        JOIN review_queue r ON r.game_id = m.game_id`,
			table:   "games",
			problem: "holds both a confirmed match and a review entry",
		},
		{
			query: `SELECT m.game_id FROM matches m
			        LEFT JOIN games g ON g.id = m.game_id
			        WHERE g.id IS NULL`,
			table:   "matches",
			problem: "references a missing game",
		},
		{
			query: `SELECT m.game_id FROM matches m
			        LEFT JOIN hltb_results h ON h.id = m.hltb_id
			        WHERE h.id IS NULL`,
			table:   "matches",
			problem: "references a missing cached result",
		},
		{
			query: `SELECT r.game_id FROM review_queue r
			        LEFT JOIN games g ON g.id = r.game_id
			        WHERE g.id IS NULL`,
			table:   "review_queue",
			problem: "references a missing game",
		},
		{
			query:   `SELECT id FROM games WHERE TRIM(title_norm) = ''`,
			table:   "games",
			problem: "has an empty normalized title",
		},
		{
			query:   `SELECT game_id FROM matches WHERE confidence < 0.0 OR confidence > 1.0`,
			table:   "matches",
			problem: "confidence outside [0, 1]",
		},
		{
			query:   `SELECT id FROM hltb_results WHERE TRIM(query_key) = ''`,
			table:   "hltb_results",
			problem: "has an empty query key",
		},
		{
			query:   `SELECT id FROM games WHERE updated_at < created_at`,
			table:   "games",
			problem: "updated_at precedes created_at",
		},
	}

	for _, check := range checks {
		rows, err := s.db.QueryContext(ctx, check.query)
		if err != nil {
			return nil, fmt.Errorf("integrity check %q: %w", check.problem, err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan integrity row: %w", err)
			}
			issues = append(issues, Issue{Table: check.table, RowID: id, Problem: check.problem})
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("integrity check %q: %w", check.problem, err)
		}
	}

	return issues, nil
}
