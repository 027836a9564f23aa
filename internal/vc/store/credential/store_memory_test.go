package credentialstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"worldpass/internal/vault"
	"worldpass/internal/vc/credential"
	"worldpass/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx    context.Context
	cipher *vault.Vault
	store  *InMemory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	cipher, err := vault.New("store-test-secret")
	s.Require().NoError(err)
	s.cipher = cipher
	s.store = NewInMemory(cipher)
}

func (s *MemoryStoreSuite) sampleRecord(vcID, issuerDID string, createdAt time.Time) Record {
	return Record{
		VCID:       vcID,
		IssuerDID:  issuerDID,
		SubjectDID: "did:key:zHolder",
		Payload: credential.Credential{
			"jti":               vcID,
			"issuer":            issuerDID,
			"credentialSubject": map[string]any{"id": "did:key:zHolder", "age_over": json.Number("18")},
		},
		CreatedAt: createdAt,
	}
}

func (s *MemoryStoreSuite) TestSaveAndFindRoundTrip() {
	rec := s.sampleRecord("vc-1", "did:key:zIssuer", time.Now().UTC())
	s.Require().NoError(s.store.Save(s.ctx, rec))

	got, err := s.store.FindByID(s.ctx, "vc-1")
	s.Require().NoError(err)
	s.Equal(rec.VCID, got.VCID)
	s.Equal(rec.IssuerDID, got.IssuerDID)
	s.Equal(rec.SubjectDID, got.SubjectDID)
	s.Equal(rec.Payload, got.Payload)
}

func (s *MemoryStoreSuite) TestStoredFormIsEncrypted() {
	rec := s.sampleRecord("vc-1", "did:key:zIssuer", time.Now().UTC())
	s.Require().NoError(s.store.Save(s.ctx, rec))

	row := s.store.rows["vc-1"]
	s.True(vault.IsEncrypted(row.payload))
	s.NotContains(row.payload, "did:key:zHolder")
	s.Nil(row.rec.Payload)
}

func (s *MemoryStoreSuite) TestLegacyPlaintextRowReadThrough() {
	raw, err := credential.ToJSON(s.sampleRecord("vc-legacy", "did:key:zIssuer", time.Now().UTC()).Payload)
	s.Require().NoError(err)

	s.store.rows["vc-legacy"] = storedRow{
		rec:     Record{VCID: "vc-legacy", IssuerDID: "did:key:zIssuer"},
		payload: string(raw),
	}

	got, err := s.store.FindByID(s.ctx, "vc-legacy")
	s.Require().NoError(err)
	s.Equal("vc-legacy", got.Payload.JTI())
}

func (s *MemoryStoreSuite) TestPlaintextWhenNoCipher() {
	store := NewInMemory(nil)
	rec := s.sampleRecord("vc-1", "did:key:zIssuer", time.Now().UTC())
	s.Require().NoError(store.Save(s.ctx, rec))

	s.False(vault.IsEncrypted(store.rows["vc-1"].payload))

	got, err := store.FindByID(s.ctx, "vc-1")
	s.Require().NoError(err)
	s.Equal(rec.Payload, got.Payload)
}

func (s *MemoryStoreSuite) TestFindUnknown() {
	_, err := s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListByIssuerNewestFirstWithLimit() {
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		rec := s.sampleRecord(fmt.Sprintf("vc-%d", i), "did:key:zIssuer", base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Save(s.ctx, rec))
	}
	other := s.sampleRecord("vc-other", "did:key:zSomeoneElse", base)
	s.Require().NoError(s.store.Save(s.ctx, other))

	got, err := s.store.ListByIssuer(s.ctx, "did:key:zIssuer", 3)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("vc-4", got[0].VCID)
	s.Equal("vc-3", got[1].VCID)
	s.Equal("vc-2", got[2].VCID)
}
