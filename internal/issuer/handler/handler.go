// Package handler exposes issuer registration, admin approval, and the
// API-key-authenticated issuance endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"worldpass/internal/issuer/models"
	"worldpass/internal/vc/credential"
	dErrors "worldpass/pkg/domain-errors"
	"worldpass/pkg/platform/httputil"
	"worldpass/pkg/requestcontext"
)

// IssuerService manages the issuer registry.
type IssuerService interface {
	Register(ctx context.Context, name, email, domain, did string) (*models.Issuer, error)
	Approve(ctx context.Context, issuerID uuid.UUID) (string, error)
	Authenticate(ctx context.Context, apiKey string) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}

// CredentialService covers the issuance-side protocol operations.
type CredentialService interface {
	RegisterIssued(ctx context.Context, signed credential.Credential, issuerDID string) (credential.Credential, error)
	RevokeOwned(ctx context.Context, vcID, issuerDID, reason string) error
}

// Handler wires issuer endpoints to the services.
type Handler struct {
	issuers     IssuerService
	credentials CredentialService
	logger      *slog.Logger
}

// New constructs an issuer handler.
func New(issuers IssuerService, credentials CredentialService, logger *slog.Logger) *Handler {
	return &Handler{issuers: issuers, credentials: credentials, logger: logger}
}

// Register mounts the public issuer endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issuer/register", h.HandleRegister)
	r.Post("/issuer/issue", h.HandleIssue)
	r.Post("/issuer/revoke", h.HandleRevoke)
}

// RegisterAdmin mounts the admin endpoints; the caller wraps them in the
// admin auth middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/issuers", h.HandleList)
	r.Post("/admin/issuers/approve", h.HandleApprove)
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain,omitempty"`
	DID    string `json:"did,omitempty"`
}

type registerResponse struct {
	Status   string `json:"status"`
	IssuerID string `json:"issuer_id"`
}

// HandleRegister handles POST /v1/issuer/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issuer, err := h.issuers.Register(ctx, req.Name, req.Email, req.Domain, req.DID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registerResponse{
		Status:   string(issuer.Status),
		IssuerID: issuer.ID.String(),
	})
}

type issuerListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Domain    string `json:"domain"`
	DID       string `json:"did"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// HandleList handles GET /v1/admin/issuers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	issuers, err := h.issuers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]issuerListItem, 0, len(issuers))
	for _, issuer := range issuers {
		out = append(out, issuerListItem{
			ID:        issuer.ID.String(),
			Name:      issuer.Name,
			Email:     issuer.Email,
			Domain:    issuer.Domain,
			DID:       issuer.DID,
			Status:    string(issuer.Status),
			CreatedAt: issuer.CreatedAt.Unix(),
			UpdatedAt: issuer.UpdatedAt.Unix(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type approveRequest struct {
	IssuerID string `json:"issuer_id"`
}

type approveResponse struct {
	APIKey string `json:"api_key"`
}

// HandleApprove handles POST /v1/admin/issuers/approve. The minted key
// appears in this response and nowhere else.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[approveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issuerID, err := uuid.Parse(req.IssuerID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "issuer_id must be a uuid"))
		return
	}

	apiKey, err := h.issuers.Approve(ctx, issuerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, approveResponse{APIKey: apiKey})
}

type issueRequest struct {
	APIKey string          `json:"api_key"`
	VC     json.RawMessage `json:"vc"`
}

type issueResponse struct {
	VCID string                `json:"vc_id"`
	VC   credential.Credential `json:"vc"`
}

// HandleIssue handles POST /v1/issuer/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[issueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issuer, err := h.issuers.Authenticate(ctx, req.APIKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.VC) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "vc is required"))
		return
	}
	signed, err := credential.FromJSON(req.VC)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed credential"))
		return
	}

	stored, err := h.credentials.RegisterIssued(ctx, signed, issuer.DID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential issued",
		"request_id", requestID,
		"issuer_id", issuer.ID,
		"vc_id", stored.JTI(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, issueResponse{VCID: stored.JTI(), VC: stored})
}

type issuerRevokeRequest struct {
	APIKey string `json:"api_key"`
	VCID   string `json:"vc_id"`
	Reason string `json:"reason,omitempty"`
}

// HandleRevoke handles POST /v1/issuer/revoke. Scoped to credentials the
// authenticated issuer recorded.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[issuerRevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issuer, err := h.issuers.Authenticate(ctx, req.APIKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.credentials.RevokeOwned(ctx, req.VCID, issuer.DID, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
