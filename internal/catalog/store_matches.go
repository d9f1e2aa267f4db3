package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RecordMatch confirms a game-to-result linkage. Any previous match for
// the game is overwritten and any pending review entry is removed in
// the same transaction, so a game never carries both a match and a
// review row.
func (s *Store) RecordMatch(ctx context.Context, match *Match) error {
	if match.Confidence < 0 || match.Confidence > 1 {
		return fmt.Errorf("%w: %f", ErrConfidenceRange, match.Confidence)
	}
	if _, ok := ParseMethod(string(match.Method)); !ok {
		return fmt.Errorf("unknown match method %q", match.Method)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		matchedAt := match.MatchedAt
		if matchedAt.IsZero() {
			// Keep matched_at monotonic when overwriting an existing match.
			var prevRaw sql.NullString
			err := tx.QueryRowContext(ctx,
				"SELECT matched_at FROM matches WHERE game_id = ?", match.GameID).Scan(&prevRaw)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("read previous match for game %d: %w", match.GameID, err)
			}
			var prev time.Time
			if prevRaw.Valid {
				if prev, err = parseTimeString(prevRaw.String); err != nil {
					return fmt.Errorf("parse previous matched_at for game %d: %w", match.GameID, err)
				}
			}
			matchedAt = monotonicNow(prev)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO matches (game_id, hltb_id, confidence, method, decided_by, matched_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (game_id) DO UPDATE SET
				hltb_id = excluded.hltb_id,
				confidence = excluded.confidence,
				method = excluded.method,
				decided_by = excluded.decided_by,
				matched_at = excluded.matched_at`,
			match.GameID, match.HLTBID, match.Confidence,
			string(match.Method), string(match.DecidedBy), formatTime(matchedAt))
		if err != nil {
			return fmt.Errorf("record match for game %d: %w", match.GameID, err)
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM review_queue WHERE game_id = ?", match.GameID)
		if err != nil {
			return fmt.Errorf("clear review entry for game %d: %w", match.GameID, err)
		}
		return nil
	})
}

// MatchByGameID returns the confirmed match for a game, or nil when
// the game is unmatched.
func (s *Store) MatchByGameID(ctx context.Context, gameID int64) (*Match, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT game_id, hltb_id, confidence, method, decided_by, matched_at
		FROM matches WHERE game_id = ?`, gameID)

	var (
		match     Match
		method    string
		decidedBy string
		matchedAt string
	)
	err := row.Scan(&match.GameID, &match.HLTBID, &match.Confidence,
		&method, &decidedBy, &matchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match for game %d: %w", gameID, err)
	}
	match.Method = Method(method)
	match.DecidedBy = DecidedBy(decidedBy)
	if match.MatchedAt, err = parseTimeString(matchedAt); err != nil {
		return nil, fmt.Errorf("parse matched_at for game %d: %w", gameID, err)
	}
	return &match, nil
}

// DeleteMatch removes a confirmed match, returning the game to the
// unresolved pool.
func (s *Store) DeleteMatch(ctx context.Context, gameID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("delete match for game %d: %w", gameID, err)
	}
	return nil
}

// EnqueueReview places a game in the review queue with its ranked
// candidates. A game holding a confirmed match is rejected unless
// clearMatch is set, in which case the match is removed in the same
// transaction.
func (s *Store) EnqueueReview(ctx context.Context, gameID int64, candidates []ReviewCandidate, clearMatch bool) error {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode review candidates: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var matched int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM matches WHERE game_id = ?", gameID).Scan(&matched)
		if err != nil {
			return fmt.Errorf("check match for game %d: %w", gameID, err)
		}
		if matched > 0 {
			if !clearMatch {
				return fmt.Errorf("game %d: %w", gameID, ErrReviewBlocked)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE game_id = ?", gameID); err != nil {
				return fmt.Errorf("clear match for game %d: %w", gameID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO review_queue (game_id, candidates_json, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT (game_id) DO UPDATE SET
				candidates_json = excluded.candidates_json,
				created_at = excluded.created_at`,
			gameID, string(payload), formatTime(time.Now().UTC()))
		if err != nil {
			return fmt.Errorf("enqueue review for game %d: %w", gameID, err)
		}
		return nil
	})
}

// DeleteReview removes a game's pending review entry.
func (s *Store) DeleteReview(ctx context.Context, gameID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM review_queue WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("delete review for game %d: %w", gameID, err)
	}
	return nil
}

// ReviewByGameID returns the pending review entry for a game, or nil
// when none exists.
func (s *Store) ReviewByGameID(ctx context.Context, gameID int64) (*ReviewEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT game_id, candidates_json, created_at
		FROM review_queue WHERE game_id = ?`, gameID)
	entry, err := scanReviewEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("review entry for game %d: %w", gameID, err)
	}
	return entry, nil
}

// ReviewList returns every pending review entry joined with its game,
// oldest first.
func (s *Store) ReviewList(ctx context.Context) ([]ReviewView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.game_id, r.candidates_json, r.created_at,
		       g.id, g.title, g.title_norm, g.platform, g.platform_norm,
		       g.platform_family, g.year, g.status, g.rating, g.source_id,
		       g.created_at, g.updated_at
		FROM review_queue r
		JOIN games g ON g.id = r.game_id
		ORDER BY r.created_at, r.game_id`)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []ReviewView
	for rows.Next() {
		var (
			entry      ReviewEntry
			candidates string
			createdAt  string
			game       Game
			platform   sql.NullString
			platNorm   sql.NullString
			family     sql.NullString
			year       sql.NullInt64
			status     sql.NullString
			rating     sql.NullFloat64
			sourceID   sql.NullString
			gCreated   string
			gUpdated   string
		)
		err := rows.Scan(&entry.GameID, &candidates, &createdAt,
			&game.ID, &game.Title, &game.TitleNorm, &platform, &platNorm,
			&family, &year, &status, &rating, &sourceID, &gCreated, &gUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		if err := json.Unmarshal([]byte(candidates), &entry.Candidates); err != nil {
			return nil, fmt.Errorf("decode candidates for game %d: %w", entry.GameID, err)
		}
		if entry.CreatedAt, err = parseTimeString(createdAt); err != nil {
			return nil, fmt.Errorf("parse review created_at for game %d: %w", entry.GameID, err)
		}
		game.Platform = platform.String
		game.PlatformNorm = platNorm.String
		game.PlatformFamily = family.String
		game.Year = int(year.Int64)
		game.Status = status.String
		game.Rating = rating.Float64
		game.SourceID = sourceID.String
		if game.CreatedAt, err = parseTimeString(gCreated); err != nil {
			return nil, fmt.Errorf("parse created_at for game %d: %w", game.ID, err)
		}
		if game.UpdatedAt, err = parseTimeString(gUpdated); err != nil {
			return nil, fmt.Errorf("parse updated_at for game %d: %w", game.ID, err)
		}
		views = append(views, ReviewView{Entry: entry, Game: game})
	}
	return views, rows.Err()
}

func scanReviewEntry(row rowScanner) (*ReviewEntry, error) {
	var (
		entry      ReviewEntry
		candidates string
		createdAt  string
	)
	if err := row.Scan(&entry.GameID, &candidates, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(candidates), &entry.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	var err error
	if entry.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse review created_at: %w", err)
	}
	return &entry, nil
}
