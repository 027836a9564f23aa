// Package status is the revocation ledger: the authoritative validity state
// of issued credentials, keyed by credential ID and independent of the
// credential's own signature.
package status

import (
	"context"
	"time"
)

// Status of a credential in the ledger.
type Status string

const (
	StatusValid     Status = "valid"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

// Record is one ledger row per credential ID.
type Record struct {
	VCID       string
	IssuerDID  string
	SubjectDID string
	Status     Status
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clock is an injected time source for testability.
type Clock func() time.Time

// Store is the revocation ledger contract.
//
// RecordIssued is first-writer-wins: issuance never overwrites an existing
// status, so a credential revoked before its status row landed stays
// revoked. Revoke upserts to revoked and creates the row when absent, which
// lets externally issued credentials be revoked by ID alone. No operation
// moves a record out of revoked.
type Store interface {
	RecordIssued(ctx context.Context, rec Record) error
	Revoke(ctx context.Context, vcID, reason string) error
	RevokeBatch(ctx context.Context, vcIDs []string, reason string) error
	Find(ctx context.Context, vcID string) (Record, error)
}
