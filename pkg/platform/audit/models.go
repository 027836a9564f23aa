// Package audit captures structured protocol events. Events are emitted from
// domain logic and fanned out to a store or a Kafka sink; keep the Event type
// transport-agnostic.
package audit

import (
	"context"
	"time"
)

// Action names the protocol operation an event records.
type Action string

const (
	ActionChallengeIssued  Action = "challenge_issued"
	ActionCredentialVerify Action = "verify"
	ActionPresentation     Action = "present"
	ActionIssue            Action = "issue"
	ActionRevoke           Action = "revoke"
	ActionIssuerRegistered Action = "issuer_registered"
	ActionIssuerApproved   Action = "issuer_approved"
)

// Event is one audit log entry.
type Event struct {
	Timestamp  time.Time
	Action     Action
	IssuerDID  string
	SubjectDID string
	VCID       string
	Result     string
	Reason     string
	RequestID  string
	ActorID    string
}

// Store is the audit persistence contract, append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVC(ctx context.Context, vcID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
