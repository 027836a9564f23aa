package status

import (
	"context"
	"sync"
	"time"

	"worldpass/pkg/platform/sentinel"
)

// InMemory keeps ledger rows in a mutex-guarded map.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]Record
	clock   Clock
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the time source for updatedAt stamps.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an in-memory status store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		records: make(map[string]Record),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemory) RecordIssued(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.VCID]; exists {
		return nil
	}
	now := s.clock()
	rec.Status = StatusValid
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.VCID] = rec
	return nil
}

func (s *InMemory) Revoke(_ context.Context, vcID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeLocked(vcID, reason)
	return nil
}

func (s *InMemory) RevokeBatch(_ context.Context, vcIDs []string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vcID := range vcIDs {
		if vcID != "" {
			s.revokeLocked(vcID, reason)
		}
	}
	return nil
}

// revokeLocked upserts the row to revoked. Must be called holding s.mu.
func (s *InMemory) revokeLocked(vcID, reason string) {
	now := s.clock()
	rec, exists := s.records[vcID]
	if !exists {
		rec = Record{VCID: vcID, CreatedAt: now}
	}
	rec.Status = StatusRevoked
	rec.Reason = reason
	rec.UpdatedAt = now
	s.records[vcID] = rec
}

func (s *InMemory) Find(_ context.Context, vcID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[vcID]; ok {
		return rec, nil
	}
	return Record{}, sentinel.ErrNotFound
}
