// Package postgres persists audit events in an audit_logs table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "worldpass/pkg/platform/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const auditColumns = `ts, action, issuer_did, subject_did, vc_id, result, reason, request_id, actor_id`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.Action, event.IssuerDID, event.SubjectDID,
		event.VCID, event.Result, event.Reason, event.RequestID, event.ActorID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByVC(ctx context.Context, vcID string) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE vc_id = $1 ORDER BY ts DESC LIMIT 50
	`, vcID)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		ORDER BY ts DESC LIMIT $1
	`, limit)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var event audit.Event
		if err := rows.Scan(&event.Timestamp, &event.Action, &event.IssuerDID,
			&event.SubjectDID, &event.VCID, &event.Result, &event.Reason,
			&event.RequestID, &event.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
