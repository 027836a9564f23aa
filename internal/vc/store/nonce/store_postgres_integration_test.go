//go:build integration

package nonce_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"worldpass/internal/vc/store/nonce"
	"worldpass/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *nonce.Postgres
	now      time.Time
	mu       sync.Mutex
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = nonce.NewPostgres(s.postgres.Pool,
		nonce.WithPostgresClock(func() time.Time {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.now
		}),
	)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "challenge_nonces")
	s.Require().NoError(err)
	s.setNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *PostgresStoreSuite) setNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

func (s *PostgresStoreSuite) getNow() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *PostgresStoreSuite) put(value string, ttl time.Duration) {
	now := s.getNow()
	s.Require().NoError(s.store.Put(context.Background(), nonce.Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}))
}

func (s *PostgresStoreSuite) TestSingleUse() {
	ctx := context.Background()
	s.put("n1", time.Minute)

	out, err := s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeValid, out)

	out, err = s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)
}

func (s *PostgresStoreSuite) TestExpiryConsumes() {
	ctx := context.Background()
	s.put("n1", 30*time.Second)
	s.setNow(s.getNow().Add(31 * time.Second))

	out, err := s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeExpired, out)

	out, err = s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)
}

func (s *PostgresStoreSuite) TestUnknownNonce() {
	out, err := s.store.Consume(context.Background(), "never-issued")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)
}

// TestConcurrentConsume verifies at most one of many concurrent consumers
// of the same nonce wins. The DELETE .. RETURNING form has to hold under
// real connection concurrency, not just in a single session.
func (s *PostgresStoreSuite) TestConcurrentConsume() {
	ctx := context.Background()
	s.put("contested", time.Minute)

	const goroutines = 32
	var wg sync.WaitGroup
	var validCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.store.Consume(ctx, "contested")
			s.Require().NoError(err)
			if out == nonce.OutcomeValid {
				validCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), validCount.Load(), "exactly one consumer should win")
}

func (s *PostgresStoreSuite) TestPurgeExpired() {
	ctx := context.Background()
	s.put("old", 10*time.Second)
	s.put("fresh", 10*time.Minute)

	purged, err := s.store.PurgeExpired(ctx, s.getNow().Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(int64(1), purged)

	out, err := s.store.Consume(ctx, "old")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)

	out, err = s.store.Consume(ctx, "fresh")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeValid, out)
}

func (s *PostgresStoreSuite) TestPutOverwrites() {
	ctx := context.Background()
	s.put("n1", time.Second)
	s.put("n1", time.Hour)
	s.setNow(s.getNow().Add(time.Minute))

	out, err := s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeValid, out)
}
