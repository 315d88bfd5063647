package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telegramsouls/server/internal/game/session"
)

// SessionRecord is one persisted session row.
type SessionRecord struct {
	ID            int64
	Name          string
	RoomID        string
	LastMessageID int64
	UpdatedAt     time.Time
}

// SessionRepository persists whole-table session snapshots.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a SessionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// ReplaceAll atomically replaces the persisted snapshot with the given
// sessions. An empty slice clears the table.
//
// Postcondition: On success the table holds exactly the given sessions.
func (r *SessionRepository) ReplaceAll(ctx context.Context, sessions []session.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM game_sessions`); err != nil {
		return fmt.Errorf("clearing previous snapshot: %w", err)
	}

	if len(sessions) > 0 {
		rows := make([][]any, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, []any{s.ID, s.Name, s.RoomID, s.LastMessageID})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"game_sessions"},
			[]string{"id", "display_name", "room_id", "last_message_id"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("writing snapshot rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// LoadAll returns every persisted session, in id order.
//
// Postcondition: Returns all rows (possibly empty) or a non-nil error.
func (r *SessionRepository) LoadAll(ctx context.Context) ([]SessionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, display_name, room_id, last_message_id, updated_at
		 FROM game_sessions
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.RoomID, &rec.LastMessageID, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}
	return records, nil
}

// Count returns the number of persisted sessions.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM game_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
