//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Schema creates every table the postgres-backed stores expect. Applied once
// per container; tests truncate between cases instead of re-migrating.
const Schema = `
CREATE TABLE IF NOT EXISTS challenge_nonces (
	nonce      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS vc_status (
	vc_id       TEXT PRIMARY KEY,
	issuer_did  TEXT NOT NULL DEFAULT '',
	subject_did TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS issued_vcs (
	vc_id       TEXT PRIMARY KEY,
	issuer_did  TEXT NOT NULL,
	subject_did TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS issued_vcs_issuer_idx ON issued_vcs (issuer_did, created_at DESC);

CREATE TABLE IF NOT EXISTS issuers (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	did          TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	api_key_hash TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS issuers_api_key_hash_idx ON issuers (api_key_hash) WHERE api_key_hash <> '';

CREATE TABLE IF NOT EXISTS audit_logs (
	id          BIGSERIAL PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	issuer_did  TEXT NOT NULL DEFAULT '',
	subject_did TEXT NOT NULL DEFAULT '',
	vc_id       TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_logs_vc_idx ON audit_logs (vc_id, ts DESC);
`

// PostgresContainer wraps a testcontainers Postgres instance with both client
// flavors the stores use.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("worldpass_test"),
		tcpostgres.WithUsername("worldpass"),
		tcpostgres.WithPassword("worldpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
		Pool:      pool,
	}

	// No t.Cleanup here: the container is shared across suites via the
	// singleton Manager, and Ryuk reaps it when the test process exits.

	return pc
}

// TruncateTables empties the named tables. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}
