package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"worldpass/pkg/platform/sentinel"
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

func (s *MemoryStoreSuite) TestRecordIssuedFirstWriterWins() {
	rec := Record{VCID: "vc-1", IssuerDID: "did:key:zISS", SubjectDID: "did:key:zSUB"}
	s.Require().NoError(s.store.RecordIssued(s.ctx, rec))

	// Revoke, then attempt to re-record issuance: status must stay revoked.
	s.Require().NoError(s.store.Revoke(s.ctx, "vc-1", "compromised"))
	s.Require().NoError(s.store.RecordIssued(s.ctx, rec))

	got, err := s.store.Find(s.ctx, "vc-1")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, got.Status)
	s.Equal("compromised", got.Reason)
}

func (s *MemoryStoreSuite) TestRevokeCreatesRowWhenAbsent() {
	s.Require().NoError(s.store.Revoke(s.ctx, "vc-external", "offline issued"))

	got, err := s.store.Find(s.ctx, "vc-external")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, got.Status)
}

func (s *MemoryStoreSuite) TestRevocationIsMonotonic() {
	s.Require().NoError(s.store.RecordIssued(s.ctx, Record{VCID: "vc-1"}))
	s.Require().NoError(s.store.Revoke(s.ctx, "vc-1", ""))

	// A later revoke updates reason and timestamp but never reverts.
	s.now = s.now.Add(time.Hour)
	s.Require().NoError(s.store.Revoke(s.ctx, "vc-1", "second reason"))

	got, err := s.store.Find(s.ctx, "vc-1")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, got.Status)
	s.Equal("second reason", got.Reason)
	s.Equal(s.now, got.UpdatedAt)
}

func (s *MemoryStoreSuite) TestRevokeBatch() {
	s.Require().NoError(s.store.RecordIssued(s.ctx, Record{VCID: "vc-1"}))
	s.Require().NoError(s.store.RecordIssued(s.ctx, Record{VCID: "vc-2"}))

	s.Require().NoError(s.store.RevokeBatch(s.ctx, []string{"vc-1", "", "vc-2", "vc-3"}, "issuer offboarded"))

	for _, id := range []string{"vc-1", "vc-2", "vc-3"} {
		got, err := s.store.Find(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(StatusRevoked, got.Status, "vc %s", id)
	}
}

func (s *MemoryStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(s.ctx, "vc-nope")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
