// Package nonce persists single-use challenge nonces. A nonce moves
// Absent -> Active -> gone: any consume attempt that finds the entry deletes
// it, whether it turned out valid or expired. That keeps an attacker from
// probing expiry state by repeated submission.
package nonce

import (
	"context"
	"time"
)

// Outcome of a consume attempt.
type Outcome int

const (
	// OutcomeValid: the nonce existed, was unexpired, and is now deleted.
	OutcomeValid Outcome = iota
	// OutcomeNotFound: no such nonce (never issued, already consumed, or purged).
	OutcomeNotFound
	// OutcomeExpired: the nonce existed but was past its expiry; it is now deleted.
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Entry is the stored record for an active nonce.
type Entry struct {
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Clock is an injected time source for testability.
type Clock func() time.Time

// Store is the nonce ledger contract. Put overwrites an existing entry with
// the same value. Consume must be atomic: two concurrent consumers of the
// same value must not both observe OutcomeValid.
type Store interface {
	Put(ctx context.Context, e Entry) error
	Consume(ctx context.Context, value string) (Outcome, error)
}
