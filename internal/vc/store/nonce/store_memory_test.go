package nonce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	now   time.Time
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemory(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) put(value string, ttl time.Duration) {
	s.Require().NoError(s.store.Put(s.ctx, Entry{
		Value:     value,
		CreatedAt: s.now,
		ExpiresAt: s.now.Add(ttl),
	}))
}

// TestSingleUse verifies a nonce is consumed at most once.
func (s *MemoryStoreSuite) TestSingleUse() {
	s.put("n1", time.Minute)

	out, err := s.store.Consume(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(OutcomeValid, out)

	out, err = s.store.Consume(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(OutcomeNotFound, out)
}

// TestExpiryConsumes verifies an expired attempt deletes the entry too.
func (s *MemoryStoreSuite) TestExpiryConsumes() {
	s.put("n1", 30*time.Second)
	s.now = s.now.Add(31 * time.Second)

	out, err := s.store.Consume(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(OutcomeExpired, out)

	out, err = s.store.Consume(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(OutcomeNotFound, out, "expired attempt must delete the entry")
}

func (s *MemoryStoreSuite) TestUnknownNonce() {
	out, err := s.store.Consume(s.ctx, "never-issued")
	s.Require().NoError(err)
	s.Equal(OutcomeNotFound, out)
}

func (s *MemoryStoreSuite) TestPutOverwrites() {
	s.put("n1", time.Second)
	s.put("n1", time.Minute)
	s.now = s.now.Add(30 * time.Second)

	out, err := s.store.Consume(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(OutcomeValid, out, "second Put should extend the entry")
}

// TestConcurrentConsumeSingleWinner verifies exactly one of many concurrent
// consumers observes OutcomeValid.
func (s *MemoryStoreSuite) TestConcurrentConsumeSingleWinner() {
	s.put("contested", time.Minute)

	const goroutines = 50
	var wg sync.WaitGroup
	var wins atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.store.Consume(s.ctx, "contested")
			if err == nil && out == OutcomeValid {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(0, s.store.Len())
}
