// Package service implements the issuer registry: registration, admin
// approval with API key minting, and key-based authentication for the
// issuance endpoints.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"worldpass/internal/issuer/models"
	"worldpass/internal/issuer/store"
	dErrors "worldpass/pkg/domain-errors"
	audit "worldpass/pkg/platform/audit"
	"worldpass/pkg/platform/observability"
	"worldpass/pkg/platform/sentinel"
	"worldpass/pkg/requestcontext"
)

// Service manages the issuer lifecycle.
type Service struct {
	issuers store.Store
	logger  *slog.Logger
	auditor observability.AuditEmitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher routes registry lifecycle events onto the audit trail.
func WithAuditPublisher(emitter observability.AuditEmitter) Option {
	return func(s *Service) {
		s.auditor = emitter
	}
}

// New constructs a Service.
func New(issuers store.Store, opts ...Option) *Service {
	s := &Service{issuers: issuers, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a pending issuer. The issuer cannot issue credentials
// until an admin approves it and hands over the minted API key.
func (s *Service) Register(ctx context.Context, name, email, domain, did string) (*models.Issuer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer email is required")
	}

	now := requestcontext.Now(ctx)
	issuer := &models.Issuer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Domain:    strings.TrimSpace(domain),
		DID:       strings.TrimSpace(did),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.issuers.Create(ctx, issuer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not register issuer")
	}

	observability.LogAudit(ctx, s.logger, s.auditor, audit.ActionIssuerRegistered,
		"issuer_id", issuer.ID.String(),
		"issuer_did", issuer.DID,
		"result", "ok")
	return issuer, nil
}

// Approve transitions a pending issuer to approved and mints its API key.
// The plaintext key is returned exactly once; only its hash is stored.
func (s *Service) Approve(ctx context.Context, issuerID uuid.UUID) (string, error) {
	issuer, err := s.issuers.FindByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not load issuer")
	}
	if err := issuer.CanApprove(); err != nil {
		return "", err
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not mint api key")
	}
	issuer.ApplyApproval(HashAPIKey(apiKey), requestcontext.Now(ctx))

	if err := s.issuers.Update(ctx, issuer); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not approve issuer")
	}

	observability.LogAudit(ctx, s.logger, s.auditor, audit.ActionIssuerApproved,
		"issuer_id", issuer.ID.String(),
		"issuer_did", issuer.DID,
		"actor_id", requestcontext.Actor(ctx),
		"result", "ok")
	return apiKey, nil
}

// Authenticate resolves an API key to its approved issuer.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*models.Issuer, error) {
	if apiKey == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "bad_api_key")
	}
	issuer, err := s.issuers.FindByAPIKeyHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "bad_api_key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not look up api key")
	}
	if !issuer.IsApproved() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "bad_api_key")
	}
	return issuer, nil
}

// List returns all registered issuers, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Issuer, error) {
	issuers, err := s.issuers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list issuers")
	}
	return issuers, nil
}

// HashAPIKey returns the hex SHA-256 digest under which keys are stored.
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
