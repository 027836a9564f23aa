package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"worldpass/internal/vc/credential"
	"worldpass/internal/vc/did"
	credentialstore "worldpass/internal/vc/store/credential"
	"worldpass/internal/vc/store/status"
	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/audit"
)

// RegisterIssued records a credential signed by an approved issuer. The
// credential's issuer field must equal the issuer DID the caller
// authenticated as, and the key embedded in the proof must derive to that
// same DID. A missing jti gets a generated one; the returned credential
// carries the final jti.
func (s *Service) RegisterIssued(ctx context.Context, signed credential.Credential, issuerDID string) (credential.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "vc.RegisterIssued")
	defer span.End()

	if issuerDID == "" || signed.Issuer() != issuerDID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issuer_did_mismatch")
	}

	check := credential.Verify(signed)
	if !check.OK {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid_vc_signature:%s", check.Reason)
	}
	proofPK, _ := signed.Proof()["issuer_pk_b64u"].(string)
	if did.FromPublicKeyB64u(proofPK) != issuerDID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issuer_did_mismatch")
	}

	vcID := signed.JTI()
	if vcID == "" {
		vcID = "vc-" + uuid.NewString()
		signed = signed.Clone()
		signed["jti"] = vcID
	}

	now := s.clock().UTC()
	if err := s.credentials.Save(ctx, credentialstore.Record{
		VCID:       vcID,
		IssuerDID:  issuerDID,
		SubjectDID: signed.SubjectID(),
		Payload:    signed,
		CreatedAt:  now,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not store credential")
	}

	if err := s.statuses.RecordIssued(ctx, status.Record{
		VCID:       vcID,
		IssuerDID:  issuerDID,
		SubjectDID: signed.SubjectID(),
		Status:     status.StatusValid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not record status")
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsIssued()
	}
	s.emitAudit(ctx, audit.Event{
		Action:     audit.ActionIssue,
		IssuerDID:  issuerDID,
		SubjectDID: signed.SubjectID(),
		VCID:       vcID,
		Result:     "ok",
	})
	s.logger.InfoContext(ctx, "credential issued",
		slog.String("vc_id", vcID),
		slog.String("issuer", issuerDID))

	return signed, nil
}

// IssuedByIssuer lists credentials recorded for one issuer, newest first.
func (s *Service) IssuedByIssuer(ctx context.Context, issuerDID string, limit int) ([]credentialstore.Record, error) {
	records, err := s.credentials.ListByIssuer(ctx, issuerDID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list credentials")
	}
	return records, nil
}
