package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"worldpass/internal/issuer/models"
	"worldpass/pkg/platform/sentinel"
)

// Postgres persists issuers in an issuers table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const issuerColumns = `id, name, email, domain, did, status, api_key_hash, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, issuer *models.Issuer) error {
	query := `
		INSERT INTO issuers (` + issuerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		issuer.ID, issuer.Name, issuer.Email, issuer.Domain, issuer.DID,
		issuer.Status, issuer.APIKeyHash, issuer.CreatedAt, issuer.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create issuer: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, issuer *models.Issuer) error {
	query := `
		UPDATE issuers
		SET name = $2, email = $3, domain = $4, did = $5, status = $6,
		    api_key_hash = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		issuer.ID, issuer.Name, issuer.Email, issuer.Domain, issuer.DID,
		issuer.Status, issuer.APIKeyHash, issuer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update issuer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issuer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issuerColumns+` FROM issuers WHERE id = $1`, id)
	return scanIssuer(row)
}

func (s *Postgres) FindByAPIKeyHash(ctx context.Context, hash string) (*models.Issuer, error) {
	if hash == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+issuerColumns+` FROM issuers WHERE api_key_hash = $1`, hash)
	return scanIssuer(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Issuer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+issuerColumns+` FROM issuers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	var out []*models.Issuer
	for rows.Next() {
		issuer, err := scanIssuer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, issuer)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssuer(row rowScanner) (*models.Issuer, error) {
	var issuer models.Issuer
	err := row.Scan(&issuer.ID, &issuer.Name, &issuer.Email, &issuer.Domain,
		&issuer.DID, &issuer.Status, &issuer.APIKeyHash, &issuer.CreatedAt, &issuer.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan issuer: %w", err)
	}
	return &issuer, nil
}
