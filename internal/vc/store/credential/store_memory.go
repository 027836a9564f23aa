package credentialstore

import (
	"context"
	"sync"

	"worldpass/pkg/platform/sentinel"
)

// storedRow keeps the payload in its at-rest form so the memory store
// exercises the same encode/decode path as the Postgres store.
type storedRow struct {
	rec     Record
	payload string
}

// InMemory keeps issued credentials in a mutex-guarded map.
type InMemory struct {
	mu     sync.RWMutex
	rows   map[string]storedRow
	order  []string
	cipher Cipher
}

// NewInMemory constructs an in-memory credential store. cipher may be nil
// for plaintext storage.
func NewInMemory(cipher Cipher) *InMemory {
	return &InMemory{rows: make(map[string]storedRow), cipher: cipher}
}

func (s *InMemory) Save(_ context.Context, rec Record) error {
	stored, err := encodePayload(s.cipher, rec.Payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[rec.VCID]; !exists {
		s.order = append(s.order, rec.VCID)
	}
	rec.Payload = nil
	s.rows[rec.VCID] = storedRow{rec: rec, payload: stored}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, vcID string) (Record, error) {
	s.mu.RLock()
	row, ok := s.rows[vcID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}

	payload, err := decodePayload(s.cipher, row.payload)
	if err != nil {
		return Record{}, err
	}
	rec := row.rec
	rec.Payload = payload
	return rec, nil
}

func (s *InMemory) ListByIssuer(_ context.Context, issuerDID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	// Newest first, like the Postgres store's ORDER BY created_at DESC.
	for i := len(s.order) - 1; i >= 0; i-- {
		row := s.rows[s.order[i]]
		if row.rec.IssuerDID != issuerDID {
			continue
		}
		payload, err := decodePayload(s.cipher, row.payload)
		if err != nil {
			return nil, err
		}
		rec := row.rec
		rec.Payload = payload
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
