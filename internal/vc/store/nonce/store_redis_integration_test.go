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

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *nonce.Redis
	now   time.Time
	mu    sync.Mutex
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = nonce.NewRedis(s.redis.Client,
		nonce.WithRedisClock(func() time.Time {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.now
		}),
	)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.setNow(time.Now().Truncate(time.Second))
}

func (s *RedisStoreSuite) setNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

func (s *RedisStoreSuite) getNow() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *RedisStoreSuite) put(value string, ttl time.Duration) {
	now := s.getNow()
	s.Require().NoError(s.store.Put(context.Background(), nonce.Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}))
}

func (s *RedisStoreSuite) TestSingleUse() {
	ctx := context.Background()
	s.put("n1", time.Minute)

	out, err := s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeValid, out)

	out, err = s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)
}

// TestExpiredStillReported verifies an entry past logical expiry but within
// the physical retention window reports expired rather than not found.
func (s *RedisStoreSuite) TestExpiredStillReported() {
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

func (s *RedisStoreSuite) TestUnknownNonce() {
	out, err := s.store.Consume(context.Background(), "never-issued")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeNotFound, out)
}

// TestConcurrentConsume verifies GETDEL yields exactly one winner under
// concurrent submission of the same nonce.
func (s *RedisStoreSuite) TestConcurrentConsume() {
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

func (s *RedisStoreSuite) TestPutOverwrites() {
	ctx := context.Background()
	s.put("n1", time.Second)
	s.put("n1", time.Hour)
	s.setNow(s.getNow().Add(time.Minute))

	out, err := s.store.Consume(ctx, "n1")
	s.Require().NoError(err)
	s.Equal(nonce.OutcomeValid, out)
}
