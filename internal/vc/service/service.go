// Package service orchestrates the credential trust protocol: challenge
// issuance, credential and presentation verification, issuance recording,
// and revocation. Storage is injected so tests run against the in-memory
// ledgers and production against Postgres or Redis.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"worldpass/internal/vc/metrics"
	credentialstore "worldpass/internal/vc/store/credential"
	"worldpass/internal/vc/store/nonce"
	"worldpass/internal/vc/store/status"
	"worldpass/pkg/platform/audit"
)

// DefaultMaxChallengeTTL caps the nonce lifetime a caller can request.
const DefaultMaxChallengeTTL = 180 * time.Second

type NonceStore interface {
	Put(ctx context.Context, e nonce.Entry) error
	Consume(ctx context.Context, value string) (nonce.Outcome, error)
}

type StatusStore interface {
	RecordIssued(ctx context.Context, rec status.Record) error
	Revoke(ctx context.Context, vcID, reason string) error
	RevokeBatch(ctx context.Context, vcIDs []string, reason string) error
	Find(ctx context.Context, vcID string) (status.Record, error)
}

type CredentialStore interface {
	Save(ctx context.Context, rec credentialstore.Record) error
	FindByID(ctx context.Context, vcID string) (credentialstore.Record, error)
	ListByIssuer(ctx context.Context, issuerDID string, limit int) ([]credentialstore.Record, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the protocol operations.
type Service struct {
	nonces      NonceStore
	statuses    StatusStore
	credentials CredentialStore

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	clock          func() time.Time

	maxChallengeTTL time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithMaxChallengeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.maxChallengeTTL = ttl
	}
}

// New constructs a Service.
func New(nonces NonceStore, statuses StatusStore, credentials CredentialStore, opts ...Option) *Service {
	s := &Service{
		nonces:          nonces,
		statuses:        statuses,
		credentials:     credentials,
		logger:          slog.Default(),
		tracer:          otel.Tracer("worldpass/vc"),
		clock:           time.Now,
		maxChallengeTTL: DefaultMaxChallengeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock().UTC()
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()))
	}
}
