package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArchivedTurn is one row of coach_turns.
type ArchivedTurn struct {
	ID        uuid.UUID
	SessionID string
	Seq       int
	Phase     string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ThemeSet is one row of coach_theme_sets.
type ThemeSet struct {
	ID           uuid.UUID
	SessionID    string
	CentralTheme string
	Themes       []string
	CreatedAt    time.Time
}

// WriteTurn archives a transcript entry. A sequence number that was freed by
// a rollback is overwritten.
func (s *Store) WriteTurn(ctx context.Context, t ArchivedTurn) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coach_turns (id, session_id, seq, phase, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, seq)
		DO UPDATE SET
			phase = $4,
			role = $5,
			content = $6,
			created_at = $7`,
		uuid.New(), t.SessionID, t.Seq, t.Phase, t.Role, t.Content, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// WriteThemeSet archives a finalized theme set.
func (s *Store) WriteThemeSet(ctx context.Context, ts ThemeSet) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coach_theme_sets (id, session_id, central_theme, themes, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), ts.SessionID, ts.CentralTheme, ts.Themes, ts.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert theme set: %w", err)
	}
	return nil
}

// DeleteTurnsFrom removes archived turns with seq >= fromSeq, along with any
// theme set written after the earliest of them.
func (s *Store) DeleteTurnsFrom(ctx context.Context, sessionID string, fromSeq int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM coach_theme_sets
		WHERE session_id = $1
		  AND created_at >= (
			SELECT min(created_at) FROM coach_turns WHERE session_id = $1 AND seq >= $2
		  )`,
		sessionID, fromSeq,
	)
	if err != nil {
		return fmt.Errorf("delete theme sets: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM coach_turns WHERE session_id = $1 AND seq >= $2`, sessionID, fromSeq)
	if err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteSession removes everything archived for a session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.DeleteTurnsFrom(ctx, sessionID, 0)
}

// Transcript returns a session's archived turns in order.
func (s *Store) Transcript(ctx context.Context, sessionID string) ([]ArchivedTurn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, seq, phase, role, content, created_at
		FROM coach_turns
		WHERE session_id = $1
		ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var turns []ArchivedTurn
	for rows.Next() {
		var t ArchivedTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Phase, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// LatestThemeSet returns the most recent theme set for a session, or nil.
func (s *Store) LatestThemeSet(ctx context.Context, sessionID string) (*ThemeSet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, central_theme, themes, created_at
		FROM coach_theme_sets
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query theme set: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var ts ThemeSet
	if err := rows.Scan(&ts.ID, &ts.SessionID, &ts.CentralTheme, &ts.Themes, &ts.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan theme set: %w", err)
	}
	return &ts, nil
}
