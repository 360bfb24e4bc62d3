// Package postgres provides the relational persistence gateway.
//
// The schema mirrors the session envelope across two tables: sessions holds
// one row per session with the pending-action descriptor as JSONB, and
// cutoff_records holds one row per record with an is_deleted flag splitting
// the active and deleted lists. Save rewrites a session's rows inside a
// single transaction using the COPY protocol for the bulk insert.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capround/cutoffs/internal/core"
)

// Store is the Postgres Gateway implementation.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store and ensures the schema exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the tables if they are missing. The schema is small and
// append-only, so idempotent DDL at startup stands in for a migration tool.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id     TEXT PRIMARY KEY,
    pending_action JSONB NOT NULL DEFAULT '{"kind":"none"}'::jsonb,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cutoff_records (
    session_id            TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    id                    TEXT NOT NULL,
    serial_number         INTEGER NOT NULL DEFAULT 0,
    institution_name      TEXT NOT NULL,
    program               TEXT NOT NULL DEFAULT '',
    cutoff_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
    count_outside_bracket INTEGER NOT NULL DEFAULT 0,
    count_inside_bracket  INTEGER NOT NULL DEFAULT 0,
    order_position        INTEGER NOT NULL,
    original_order        INTEGER,
    is_deleted            BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (session_id, id)
);

CREATE INDEX IF NOT EXISTS idx_cutoff_records_position
    ON cutoff_records (session_id, is_deleted, order_position);
`

// recordColumns lists the cutoff_records columns in COPY order.
var recordColumns = []string{
	"session_id", "id", "serial_number", "institution_name", "program",
	"cutoff_score", "count_outside_bracket", "count_inside_bracket",
	"order_position", "original_order", "is_deleted",
}

// Save upserts the full session envelope. Prior rows are deleted and the
// current lists rewritten, so the stored state always matches memory exactly
// (no partial patch).
func (s *Store) Save(ctx context.Context, session *core.Session) error {
	actionJSON, err := json.Marshal(session.PendingAction)
	if err != nil {
		return fmt.Errorf("encode pending action: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (session_id, pending_action, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE
		SET pending_action = EXCLUDED.pending_action,
		    updated_at     = now()`,
		session.SessionID, actionJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM cutoff_records WHERE session_id = $1`, session.SessionID)
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	rows := make([]copyRow, 0, len(session.ActiveRecords)+len(session.DeletedRecords))
	for _, r := range session.ActiveRecords {
		rows = append(rows, copyRow{rec: r, deleted: false})
	}
	for _, r := range session.DeletedRecords {
		rows = append(rows, copyRow{rec: r, deleted: true})
	}

	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"cutoff_records"},
			recordColumns,
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i].rec
				var original any
				if r.OriginalOrder != nil {
					original = *r.OriginalOrder
				}
				return []any{
					session.SessionID, r.ID, r.SerialNumber, r.InstitutionName,
					r.Program, r.CutoffScore, r.CountOutsideBracket,
					r.CountInsideBracket, r.Order, original, rows[i].deleted,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
	}

	return tx.Commit(ctx)
}

type copyRow struct {
	rec     core.Record
	deleted bool
}

// Load rehydrates the session, or returns (nil, nil) when no row exists.
func (s *Store) Load(ctx context.Context, sessionID string) (*core.Session, error) {
	session := &core.Session{SessionID: sessionID}

	var actionJSON []byte
	var createdAt, updatedAt time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT pending_action, created_at, updated_at
		FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&actionJSON, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	session.CreatedAt = createdAt
	session.UpdatedAt = updatedAt
	if err := json.Unmarshal(actionJSON, &session.PendingAction); err != nil {
		return nil, fmt.Errorf("decode pending action: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, serial_number, institution_name, program, cutoff_score,
		       count_outside_bracket, count_inside_bracket, order_position,
		       original_order, is_deleted
		FROM cutoff_records
		WHERE session_id = $1
		ORDER BY is_deleted, order_position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec core.Record
		var original *int
		var deleted bool
		err := rows.Scan(&rec.ID, &rec.SerialNumber, &rec.InstitutionName,
			&rec.Program, &rec.CutoffScore, &rec.CountOutsideBracket,
			&rec.CountInsideBracket, &rec.Order, &original, &deleted)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.OriginalOrder = original

		if deleted {
			session.DeletedRecords = append(session.DeletedRecords, rec)
		} else {
			session.ActiveRecords = append(session.ActiveRecords, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return session, nil
}
