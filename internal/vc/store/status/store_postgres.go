package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"worldpass/pkg/platform/sentinel"
)

// Postgres persists the revocation ledger in a vc_status table.
type Postgres struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a Postgres status store.
type PostgresOption func(*Postgres)

// WithPostgresClock sets the time source for updatedAt stamps.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *Postgres) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a Postgres-backed status store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// RecordIssued inserts a valid row unless one already exists. ON CONFLICT DO
// NOTHING makes the first-writer-wins race deterministic.
func (s *Postgres) RecordIssued(ctx context.Context, rec Record) error {
	now := s.clock()
	query := `
		INSERT INTO vc_status (vc_id, issuer_did, subject_did, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', $5, $5)
		ON CONFLICT (vc_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, rec.VCID, rec.IssuerDID, rec.SubjectDID, StatusValid, now); err != nil {
		return fmt.Errorf("record issued: %w", err)
	}
	return nil
}

// Revoke upserts the row to revoked, creating it when absent so externally
// issued credentials can still be revoked by ID.
func (s *Postgres) Revoke(ctx context.Context, vcID, reason string) error {
	now := s.clock()
	query := `
		INSERT INTO vc_status (vc_id, issuer_did, subject_did, status, reason, created_at, updated_at)
		VALUES ($1, '', '', $2, $3, $4, $4)
		ON CONFLICT (vc_id) DO UPDATE SET
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, vcID, StatusRevoked, reason, now); err != nil {
		return fmt.Errorf("revoke %s: %w", vcID, err)
	}
	return nil
}

// RevokeBatch revokes multiple credential IDs in one round trip using unnest.
func (s *Postgres) RevokeBatch(ctx context.Context, vcIDs []string, reason string) error {
	valid := make([]string, 0, len(vcIDs))
	for _, id := range vcIDs {
		if id != "" {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	now := s.clock()
	query := `
		INSERT INTO vc_status (vc_id, issuer_did, subject_did, status, reason, created_at, updated_at)
		SELECT unnest($1::text[]), '', '', $2, $3, $4, $4
		ON CONFLICT (vc_id) DO UPDATE SET
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(valid), StatusRevoked, reason, now); err != nil {
		return fmt.Errorf("revoke batch: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, vcID string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT vc_id, issuer_did, subject_did, status, reason, created_at, updated_at
		FROM vc_status WHERE vc_id = $1
	`, vcID).Scan(&rec.VCID, &rec.IssuerDID, &rec.SubjectDID, &rec.Status, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find status %s: %w", vcID, err)
	}
	return rec, nil
}
