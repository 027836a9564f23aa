package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"worldpass/internal/vc/keys"
	"worldpass/internal/vc/store/nonce"
	"worldpass/pkg/platform/audit"
)

// Challenge is a freshly minted presentation nonce.
type Challenge struct {
	Value     string
	ExpiresAt time.Time
}

// NewChallenge mints a single-use nonce bound to nothing but its lifetime.
// The effective TTL is the requested one clamped to the configured ceiling;
// a non-positive request gets the ceiling. 128 bits of entropy make value
// collisions negligible, so Put may overwrite.
func (s *Service) NewChallenge(ctx context.Context, audience string, requestedTTL time.Duration) (Challenge, error) {
	ttl := requestedTTL
	if ttl <= 0 || ttl > s.maxChallengeTTL {
		ttl = s.maxChallengeTTL
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, fmt.Errorf("new challenge: %w", err)
	}
	value := keys.Encode(buf)

	now := s.clock().UTC()
	entry := nonce.Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.nonces.Put(ctx, entry); err != nil {
		return Challenge{}, fmt.Errorf("new challenge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementChallengesIssued()
	}
	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionChallengeIssued,
		Result: "ok",
	})
	s.logger.DebugContext(ctx, "challenge issued",
		slog.String("audience", audience),
		slog.Duration("ttl", ttl))

	return Challenge{Value: value, ExpiresAt: entry.ExpiresAt}, nil
}
