package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists nonces in a challenge_nonces table. Consume is a single
// DELETE .. RETURNING statement so the check-and-delete is atomic without an
// explicit transaction: whichever concurrent request deletes the row sees it,
// everyone else gets no rows.
type Postgres struct {
	pool  *pgxpool.Pool
	clock Clock
}

// PostgresOption configures a Postgres nonce store.
type PostgresOption func(*Postgres)

// WithPostgresClock sets the time source for expiry checks.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *Postgres) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a Postgres-backed nonce store.
func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) *Postgres {
	s := &Postgres{pool: pool, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Postgres) Put(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO challenge_nonces (nonce, created_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (nonce) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	if _, err := s.pool.Exec(ctx, query, e.Value, e.CreatedAt, e.ExpiresAt); err != nil {
		return fmt.Errorf("put nonce: %w", err)
	}
	return nil
}

func (s *Postgres) Consume(ctx context.Context, value string) (Outcome, error) {
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`DELETE FROM challenge_nonces WHERE nonce = $1 RETURNING expires_at`,
		value,
	).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OutcomeNotFound, nil
	}
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("consume nonce: %w", err)
	}

	if s.clock().After(expiresAt) {
		return OutcomeExpired, nil
	}
	return OutcomeValid, nil
}

// PurgeExpired removes entries whose expiry passed before cutoff. Called by
// the janitor; expired nonces left behind by clients that never presented
// them would otherwise accumulate forever.
func (s *Postgres) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM challenge_nonces WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired nonces: %w", err)
	}
	return tag.RowsAffected(), nil
}
