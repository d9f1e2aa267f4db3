package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertGame inserts a new game or updates the existing row carrying
// the same identity key (title_norm, platform_family, year). Rows that
// agree on the normalized title but differ on a known family or year
// are distinct games and produce separate rows. A row whose key merely
// overlaps an existing one, because one side lacks a family or year the
// other knows, is rejected with ErrAmbiguousGame instead of being
// merged.
func (s *Store) UpsertGame(ctx context.Context, game *Game) (*Game, error) {
	if strings.TrimSpace(game.TitleNorm) == "" {
		return nil, ErrEmptyTitleNorm
	}

	var out *Game
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := gamesByTitleNormTx(ctx, tx, game.TitleNorm)
		if err != nil {
			return err
		}

		var target *Game
		for i := range existing {
			switch classifyIdentity(game, &existing[i]) {
			case identitySame:
				target = &existing[i]
			case identityOverlap:
				return fmt.Errorf("%w: %q vs existing game %d",
					ErrAmbiguousGame, game.Title, existing[i].ID)
			}
		}

		if target == nil {
			inserted, err := insertGameTx(ctx, tx, game)
			if err != nil {
				return err
			}
			out = inserted
			return nil
		}

		updated, err := updateGameTx(ctx, tx, target, game)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type identityRelation int

const (
	identityDistinct identityRelation = iota
	identitySame
	identityOverlap
)

// classifyIdentity compares two games sharing a title_norm. Each key
// component either matches, conflicts (both known, different), or
// overlaps (exactly one side known). Any conflict makes the games
// distinct; otherwise any overlap makes identity ambiguous.
func classifyIdentity(incoming, existing *Game) identityRelation {
	family := compareComponent(incoming.PlatformFamily != "", existing.PlatformFamily != "",
		incoming.PlatformFamily == existing.PlatformFamily)
	year := compareComponent(incoming.Year != 0, existing.Year != 0,
		incoming.Year == existing.Year)

	if family == identityDistinct || year == identityDistinct {
		return identityDistinct
	}
	if family == identityOverlap || year == identityOverlap {
		return identityOverlap
	}
	return identitySame
}

func compareComponent(incomingKnown, existingKnown, equal bool) identityRelation {
	switch {
	case incomingKnown && existingKnown:
		if equal {
			return identitySame
		}
		return identityDistinct
	case !incomingKnown && !existingKnown:
		return identitySame
	default:
		return identityOverlap
	}
}

func gamesByTitleNormTx(ctx context.Context, tx *sql.Tx, titleNorm string) ([]Game, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, title_norm, platform, platform_norm, platform_family,
		       year, status, rating, source_id, created_at, updated_at
		FROM games WHERE title_norm = ?`, titleNorm)
	if err != nil {
		return nil, fmt.Errorf("query games by title_norm: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var games []Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func insertGameTx(ctx context.Context, tx *sql.Tx, game *Game) (*Game, error) {
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO games (title, title_norm, platform, platform_norm, platform_family,
		                   year, status, rating, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.Title, game.TitleNorm,
		nullableString(game.Platform), nullableString(game.PlatformNorm),
		nullableString(game.PlatformFamily), nullableInt(game.Year),
		nullableString(game.Status), nullableFloat(game.Rating),
		nullableString(game.SourceID), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("game insert id: %w", err)
	}

	inserted := *game
	inserted.ID = id
	inserted.CreatedAt = now
	inserted.UpdatedAt = now
	return &inserted, nil
}

// updateGameTx refreshes the mutable columns of an existing row. The
// new updated_at is read back from the stored previous value so it is
// strictly greater even when the clock stalls.
func updateGameTx(ctx context.Context, tx *sql.Tx, existing, incoming *Game) (*Game, error) {
	updatedAt := monotonicNow(existing.UpdatedAt)
	_, err := tx.ExecContext(ctx, `
		UPDATE games
		SET title = ?, platform = ?, platform_norm = ?,
		    status = ?, rating = ?, source_id = ?, updated_at = ?
		WHERE id = ?`,
		incoming.Title,
		nullableString(incoming.Platform), nullableString(incoming.PlatformNorm),
		nullableString(incoming.Status), nullableFloat(incoming.Rating),
		nullableString(incoming.SourceID), formatTime(updatedAt), existing.ID)
	if err != nil {
		return nil, fmt.Errorf("update game %d: %w", existing.ID, err)
	}

	updated := *incoming
	updated.ID = existing.ID
	updated.PlatformFamily = existing.PlatformFamily
	updated.Year = existing.Year
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = updatedAt
	return &updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*Game, error) {
	var (
		game      Game
		platform  sql.NullString
		platNorm  sql.NullString
		family    sql.NullString
		year      sql.NullInt64
		status    sql.NullString
		rating    sql.NullFloat64
		sourceID  sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&game.ID, &game.Title, &game.TitleNorm, &platform, &platNorm,
		&family, &year, &status, &rating, &sourceID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	game.Platform = platform.String
	game.PlatformNorm = platNorm.String
	game.PlatformFamily = family.String
	game.Year = int(year.Int64)
	game.Status = status.String
	game.Rating = rating.Float64
	game.SourceID = sourceID.String
	if game.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for game %d: %w", game.ID, err)
	}
	if game.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for game %d: %w", game.ID, err)
	}
	return &game, nil
}

// GetGame fetches one game by id.
func (s *Store) GetGame(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, title_norm, platform, platform_norm, platform_family,
		       year, status, rating, source_id, created_at, updated_at
		FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	return game, nil
}

// GamesToProcess returns games a pipeline run should consider. With
// rematch disabled, games that already hold a match or sit in the
// review queue are skipped.
func (s *Store) GamesToProcess(ctx context.Context, rematch bool) ([]Game, error) {
	query := `
		SELECT g.id, g.title, g.title_norm, g.platform, g.platform_norm,
		       g.platform_family, g.year, g.status, g.rating, g.source_id,
		       g.created_at, g.updated_at
		FROM games g`
	if !rematch {
		query += `
		LEFT JOIN matches m ON m.game_id = g.id
		LEFT JOIN review_queue r ON r.game_id = g.id
		WHERE m.game_id IS NULL AND r.game_id IS NULL`
	}
	query += `
		ORDER BY g.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query games to process: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var games []Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// ListGames returns all games ordered by normalized title.
func (s *Store) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, title_norm, platform, platform_norm, platform_family,
		       year, status, rating, source_id, created_at, updated_at
		FROM games ORDER BY title_norm, id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var games []Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// ExportRows returns every game joined with its match and cached
// durations, ordered by title for stable exports.
func (s *Store) ExportRows(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.title, g.platform, g.year, g.status, g.rating,
		       h.main, h.main_extra, h.complete, h.votes,
		       m.confidence, m.method, m.decided_by
		FROM games g
		LEFT JOIN matches m ON m.game_id = g.id
		LEFT JOIN hltb_results h ON h.id = m.hltb_id
		ORDER BY g.title_norm, g.id`)
	if err != nil {
		return nil, fmt.Errorf("query export rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ExportRow
	for rows.Next() {
		var (
			r          ExportRow
			platform   sql.NullString
			year       sql.NullInt64
			status     sql.NullString
			rating     sql.NullFloat64
			main       sql.NullFloat64
			mainExtra  sql.NullFloat64
			complete   sql.NullFloat64
			votes      sql.NullInt64
			confidence sql.NullFloat64
			method     sql.NullString
			decidedBy  sql.NullString
		)
		err := rows.Scan(&r.Title, &platform, &year, &status, &rating,
			&main, &mainExtra, &complete, &votes,
			&confidence, &method, &decidedBy)
		if err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		r.Platform = platform.String
		r.Year = int(year.Int64)
		r.Status = status.String
		r.Rating = rating.Float64
		r.Main = main.Float64
		r.MainExtra = mainExtra.Float64
		r.Complete = complete.Float64
		r.Votes = int(votes.Int64)
		r.Confidence = confidence.Float64
		r.Method = method.String
		r.DecidedBy = decidedBy.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates catalog-wide counts for reporting.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Methods: make(map[string]int)}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(1) FROM games", &stats.Games},
		{"SELECT COUNT(1) FROM matches", &stats.Matches},
		{"SELECT COUNT(1) FROM review_queue", &stats.Queue},
		{"SELECT COUNT(1) FROM hltb_results", &stats.CacheEntries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats count: %w", err)
		}
	}
	stats.Unresolved = stats.Games - stats.Matches - stats.Queue

	rows, err := s.db.QueryContext(ctx, "SELECT method, COUNT(1) FROM matches GROUP BY method")
	if err != nil {
		return nil, fmt.Errorf("stats methods: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			method string
			count  int
		)
		if err := rows.Scan(&method, &count); err != nil {
			return nil, fmt.Errorf("scan method count: %w", err)
		}
		stats.Methods[method] = count
	}
	return stats, rows.Err()
}
