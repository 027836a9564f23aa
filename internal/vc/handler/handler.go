// Package handler wires the credential protocol endpoints to the service.
// Verification outcomes travel as reason codes; this layer maps them onto
// HTTP status codes and nothing else.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"worldpass/internal/vc/credential"
	"worldpass/internal/vc/presentation"
	"worldpass/internal/vc/service"
	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/httputil"
	"worldpass/pkg/requestcontext"
)

// Service defines the protocol operations the handler depends on.
type Service interface {
	NewChallenge(ctx context.Context, audience string, requestedTTL time.Duration) (service.Challenge, error)
	VerifyCredential(ctx context.Context, signed credential.Credential) (service.VerificationResult, error)
	VerifyPresentation(ctx context.Context, pres presentation.Presentation) (service.VerificationResult, error)
	Revoke(ctx context.Context, vcID, reason string) error
	RevokeBatch(ctx context.Context, vcIDs []string, reason string) error
	Status(ctx context.Context, vcID string) (service.StatusInfo, error)
}

// Handler wires credential endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public protocol endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/challenge/new", h.HandleNewChallenge)
	r.Post("/vc/verify", h.HandleVerifyCredential)
	r.Post("/present/verify", h.HandleVerifyPresentation)
	r.Post("/revoke", h.HandleRevoke)
	r.Get("/status/{vc_id}", h.HandleStatus)
}

// HandleNewChallenge handles POST /v1/challenge/new.
func (h *Handler) HandleNewChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[ChallengeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	challenge, err := h.service.NewChallenge(ctx, req.Audience, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.logger.ErrorContext(ctx, "challenge issuance failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChallengeResponse{
		Challenge: challenge.Value,
		ExpiresAt: challenge.ExpiresAt.Unix(),
	})
}

// HandleVerifyCredential handles POST /v1/vc/verify.
func (h *Handler) HandleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[VerifyCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	signed, err := credential.FromJSON(req.VC)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed credential"))
		return
	}

	result, err := h.service.VerifyCredential(ctx, signed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, statusForReason(result.Reason), fromResult(result))
}

// HandleVerifyPresentation handles POST /v1/present/verify. The raw body
// goes straight to the presentation parser so credential bytes survive
// untouched.
func (h *Handler) HandleVerifyPresentation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "could not read body"))
		return
	}
	pres, err := presentation.Parse(raw)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed presentation",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed presentation"))
		return
	}

	result, err := h.service.VerifyPresentation(ctx, pres)
	if err != nil {
		h.logger.ErrorContext(ctx, "presentation verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, statusForReason(result.Reason), fromResult(result))
}

// HandleRevoke handles POST /v1/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var err error
	if len(req.VCIDs) > 0 {
		err = h.service.RevokeBatch(ctx, req.VCIDs, req.Reason)
	} else {
		err = h.service.Revoke(ctx, req.VCID, req.Reason)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RevokeResponse{Status: "revoked"})
}

// HandleStatus handles GET /v1/status/{vc_id}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vcID := chi.URLParam(r, "vc_id")

	info, err := h.service.Status(ctx, vcID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := StatusResponse{VCID: info.VCID, Status: info.Status}
	if info.UpdatedAt != nil {
		updated := info.UpdatedAt.Unix()
		resp.UpdatedAt = &updated
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// statusForReason maps verification reason codes onto HTTP status codes.
// Revoked is a 200: the protocol ran to completion and the answer is no.
func statusForReason(reason string) int {
	switch {
	case reason == service.ReasonOK || reason == service.ReasonRevoked:
		return http.StatusOK
	case reason == service.ReasonReplayOrInvalidNonce || reason == service.ReasonNonceExpired:
		return http.StatusConflict
	case reason == service.ReasonBadHolderSignature,
		strings.HasPrefix(reason, "invalid_vc_signature"),
		reason == credential.ReasonInvalidSignature,
		reason == credential.ReasonMissingProof:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
