// Package models holds the issuer registry domain types.
package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "worldpass/pkg/domain-errors"
)

// Status is the issuer lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDisabled Status = "disabled"
)

// Issuer is a registered credential issuer. API keys are never stored;
// only the SHA-256 hex digest of the key survives approval.
type Issuer struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Domain     string
	DID        string
	Status     Status
	APIKeyHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanApprove checks whether the issuer may transition to approved.
func (i *Issuer) CanApprove() error {
	if i.Status == StatusApproved {
		return dErrors.New(dErrors.CodeConflict, "issuer is already approved")
	}
	if i.Status == StatusDisabled {
		return dErrors.New(dErrors.CodeInvariantViolation, "disabled issuer cannot be approved")
	}
	return nil
}

// ApplyApproval records the approval and the new key hash.
func (i *Issuer) ApplyApproval(apiKeyHash string, now time.Time) {
	i.Status = StatusApproved
	i.APIKeyHash = apiKeyHash
	i.UpdatedAt = now
}

// IsApproved reports whether the issuer may issue and revoke credentials.
func (i *Issuer) IsApproved() bool {
	return i.Status == StatusApproved
}
