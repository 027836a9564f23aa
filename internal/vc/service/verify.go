package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"worldpass/internal/vc/credential"
	"worldpass/internal/vc/did"
	"worldpass/internal/vc/keys"
	"worldpass/internal/vc/presentation"
	"worldpass/internal/vc/store/nonce"
	"worldpass/internal/vc/store/status"
	"worldpass/pkg/platform/audit"
	"worldpass/pkg/platform/sentinel"
)

// Reason codes for presentation verification failures. The HTTP layer
// surfaces these verbatim, so they are part of the wire contract.
const (
	ReasonOK                    = "ok"
	ReasonBadType               = "bad_type"
	ReasonMissingChallenge      = "missing_challenge"
	ReasonReplayOrInvalidNonce  = "replay_or_invalid_nonce"
	ReasonNonceExpired          = "nonce_expired"
	ReasonSubjectHolderMismatch = "subject_holder_mismatch"
	ReasonDIDPKMismatch         = "did_pk_mismatch"
	ReasonUnsupportedAlg        = "unsupported_alg"
	ReasonBadHolderSignature    = "bad_holder_signature"
	ReasonRevoked               = "revoked"

	reasonInvalidVCSignature = "invalid_vc_signature"
)

// VerificationResult is the outcome of a credential or presentation check.
// Expected failures are values, not errors.
type VerificationResult struct {
	Valid   bool
	Reason  string
	Issuer  string
	Subject string
	Revoked bool
}

// VerifyCredential checks a signed credential's proof and its revocation
// status. No nonce is involved; this is the stateless verification surface.
func (s *Service) VerifyCredential(ctx context.Context, signed credential.Credential) (VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "vc.VerifyCredential")
	defer span.End()

	check := credential.Verify(signed)
	if !check.OK {
		result := VerificationResult{Reason: check.Reason}
		s.recordVerifyOutcome(ctx, audit.ActionCredentialVerify, signed.JTI(), check.Issuer, check.Subject, result)
		return result, nil
	}

	revoked, err := s.isRevoked(ctx, signed.JTI())
	if err != nil {
		return VerificationResult{}, err
	}

	result := VerificationResult{
		Valid:   !revoked,
		Reason:  ReasonOK,
		Issuer:  check.Issuer,
		Subject: check.Subject,
		Revoked: revoked,
	}
	if revoked {
		result.Reason = ReasonRevoked
	}
	s.recordVerifyOutcome(ctx, audit.ActionCredentialVerify, signed.JTI(), check.Issuer, check.Subject, result)
	return result, nil
}

// VerifyPresentation runs the full holder-binding pipeline. Single pass,
// fail-fast; every failure past step one has already consumed the nonce, so
// a retry needs a fresh challenge. Revocation is folded into the result
// rather than short-circuiting: the caller gets the holder-binding outcome
// even for a revoked credential.
func (s *Service) VerifyPresentation(ctx context.Context, pres presentation.Presentation) (VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "vc.VerifyPresentation")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveVerify(time.Now())
	}

	if pres.Type != presentation.TypePresentation {
		return s.presentationFailure(ctx, pres, ReasonBadType), nil
	}
	if pres.Challenge == "" {
		return s.presentationFailure(ctx, pres, ReasonMissingChallenge), nil
	}

	outcome, err := s.nonces.Consume(ctx, pres.Challenge)
	if err != nil {
		return VerificationResult{}, err
	}
	span.SetAttributes(attribute.String("nonce.outcome", outcome.String()))
	switch outcome {
	case nonce.OutcomeNotFound:
		return s.presentationFailure(ctx, pres, ReasonReplayOrInvalidNonce), nil
	case nonce.OutcomeExpired:
		return s.presentationFailure(ctx, pres, ReasonNonceExpired), nil
	}

	check := credential.Verify(pres.Credential)
	if !check.OK {
		return s.presentationFailure(ctx, pres, reasonInvalidVCSignature+":"+check.Reason), nil
	}

	revoked, err := s.isRevoked(ctx, pres.Credential.JTI())
	if err != nil {
		return VerificationResult{}, err
	}

	if pres.Credential.SubjectID() != pres.Holder.DID {
		return s.presentationFailure(ctx, pres, ReasonSubjectHolderMismatch), nil
	}
	if did.FromPublicKeyB64u(pres.Holder.PublicKeyB64u) != pres.Holder.DID {
		return s.presentationFailure(ctx, pres, ReasonDIDPKMismatch), nil
	}
	if pres.Holder.Alg != presentation.AlgEd25519 {
		return s.presentationFailure(ctx, pres, ReasonUnsupportedAlg), nil
	}

	pk, err := keys.Decode(pres.Holder.PublicKeyB64u)
	if err != nil {
		return s.presentationFailure(ctx, pres, ReasonBadHolderSignature), nil
	}
	sig, err := keys.Decode(pres.Holder.SignatureB64u)
	if err != nil {
		return s.presentationFailure(ctx, pres, ReasonBadHolderSignature), nil
	}
	ok, err := keys.Verify(pk, pres.HolderMessage(), sig)
	if err != nil || !ok {
		return s.presentationFailure(ctx, pres, ReasonBadHolderSignature), nil
	}

	result := VerificationResult{
		Valid:   !revoked,
		Reason:  ReasonOK,
		Issuer:  check.Issuer,
		Subject: check.Subject,
		Revoked: revoked,
	}
	if revoked {
		result.Reason = ReasonRevoked
	}
	s.recordVerifyOutcome(ctx, audit.ActionPresentation, pres.Credential.JTI(), check.Issuer, check.Subject, result)
	return result, nil
}

func (s *Service) isRevoked(ctx context.Context, vcID string) (bool, error) {
	if vcID == "" {
		return false, nil
	}
	rec, err := s.statuses.Find(ctx, vcID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == status.StatusRevoked, nil
}

func (s *Service) presentationFailure(ctx context.Context, pres presentation.Presentation, reason string) VerificationResult {
	result := VerificationResult{Reason: reason}
	s.recordVerifyOutcome(ctx, audit.ActionPresentation,
		pres.Credential.JTI(), pres.Credential.Issuer(), pres.Credential.SubjectID(), result)
	return result
}

func (s *Service) recordVerifyOutcome(ctx context.Context, action audit.Action, vcID, issuer, subject string, result VerificationResult) {
	if s.metrics != nil {
		s.metrics.RecordPresentationResult(result.Reason)
	}
	auditResult := "fail"
	if result.Valid {
		auditResult = "ok"
	}
	s.emitAudit(ctx, audit.Event{
		Action:     action,
		IssuerDID:  issuer,
		SubjectDID: subject,
		VCID:       vcID,
		Result:     auditResult,
		Reason:     result.Reason,
	})
	if !result.Valid {
		s.logger.InfoContext(ctx, "verification failed",
			slog.String("action", string(action)),
			slog.String("vc_id", vcID),
			slog.String("reason", result.Reason))
	}
}
