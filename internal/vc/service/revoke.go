package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/audit"
	"worldpass/pkg/platform/sentinel"
)

// Revoke marks a credential revoked by ID, creating the status row when no
// issuance was ever recorded. There is no un-revoke.
func (s *Service) Revoke(ctx context.Context, vcID, reason string) error {
	if vcID == "" {
		return dErrors.New(dErrors.CodeValidation, "vc_id is required")
	}
	if err := s.statuses.Revoke(ctx, vcID, reason); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not revoke credential")
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsRevoked(1)
	}
	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionRevoke,
		VCID:   vcID,
		Result: "ok",
		Reason: reason,
	})
	s.logger.InfoContext(ctx, "credential revoked", slog.String("vc_id", vcID))
	return nil
}

// RevokeBatch revokes several credentials in one store round trip.
func (s *Service) RevokeBatch(ctx context.Context, vcIDs []string, reason string) error {
	if len(vcIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "vc_ids is required")
	}
	for _, vcID := range vcIDs {
		if vcID == "" {
			return dErrors.New(dErrors.CodeValidation, "vc_ids must not contain empty ids")
		}
	}
	if err := s.statuses.RevokeBatch(ctx, vcIDs, reason); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not revoke credentials")
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsRevoked(len(vcIDs))
	}
	for _, vcID := range vcIDs {
		s.emitAudit(ctx, audit.Event{
			Action: audit.ActionRevoke,
			VCID:   vcID,
			Result: "ok",
			Reason: reason,
		})
	}
	return nil
}

// RevokeOwned revokes a credential only if the given issuer recorded it.
// Issuers cannot revoke each other's credentials through this path.
func (s *Service) RevokeOwned(ctx context.Context, vcID, issuerDID, reason string) error {
	if vcID == "" {
		return dErrors.New(dErrors.CodeValidation, "vc_id is required")
	}
	rec, err := s.credentials.FindByID(ctx, vcID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load credential")
	}
	if rec.IssuerDID != issuerDID {
		// Do not leak which issuer owns the credential.
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	return s.Revoke(ctx, vcID, reason)
}

// StatusInfo is a status lookup result. Unknown credentials report status
// "unknown" with a nil UpdatedAt rather than an error.
type StatusInfo struct {
	VCID      string
	Status    string
	UpdatedAt *time.Time
}

const statusUnknown = "unknown"

// Status looks up the revocation ledger entry for a credential ID.
func (s *Service) Status(ctx context.Context, vcID string) (StatusInfo, error) {
	if vcID == "" {
		return StatusInfo{}, dErrors.New(dErrors.CodeValidation, "vc_id is required")
	}
	rec, err := s.statuses.Find(ctx, vcID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return StatusInfo{VCID: vcID, Status: statusUnknown}, nil
	}
	if err != nil {
		return StatusInfo{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load status")
	}
	updatedAt := rec.UpdatedAt
	return StatusInfo{VCID: vcID, Status: string(rec.Status), UpdatedAt: &updatedAt}, nil
}
