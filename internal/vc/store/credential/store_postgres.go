package credentialstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"worldpass/pkg/platform/sentinel"
)

// Postgres persists issued credentials in an issued_vcs table. The payload
// column holds either the encrypted envelope or, for pre-encryption rows,
// plaintext JSON; decodePayload disambiguates.
type Postgres struct {
	db     *sql.DB
	cipher Cipher
}

// NewPostgres constructs a Postgres-backed credential store. cipher may be
// nil for plaintext storage.
func NewPostgres(db *sql.DB, cipher Cipher) *Postgres {
	return &Postgres{db: db, cipher: cipher}
}

func (s *Postgres) Save(ctx context.Context, rec Record) error {
	stored, err := encodePayload(s.cipher, rec.Payload)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO issued_vcs (vc_id, issuer_did, subject_did, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vc_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, rec.VCID, rec.IssuerDID, rec.SubjectDID, stored, rec.CreatedAt); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, vcID string) (Record, error) {
	var rec Record
	var stored string
	err := s.db.QueryRowContext(ctx, `
		SELECT vc_id, issuer_did, subject_did, payload, created_at
		FROM issued_vcs WHERE vc_id = $1
	`, vcID).Scan(&rec.VCID, &rec.IssuerDID, &rec.SubjectDID, &stored, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find credential %s: %w", vcID, err)
	}

	rec.Payload, err = decodePayload(s.cipher, stored)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Postgres) ListByIssuer(ctx context.Context, issuerDID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT vc_id, issuer_did, subject_did, payload, created_at
		FROM issued_vcs WHERE issuer_did = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, issuerDID, limit)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var stored string
		if err := rows.Scan(&rec.VCID, &rec.IssuerDID, &rec.SubjectDID, &stored, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		rec.Payload, err = decodePayload(s.cipher, stored)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
