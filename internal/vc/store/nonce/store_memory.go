package nonce

import (
	"context"
	"sync"
	"time"
)

// InMemory keeps nonces in a mutex-guarded map. Suitable for tests and
// single-instance deployments; distributed setups use the Redis or Postgres
// store so all instances share consumption state.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]Entry
	clock   Clock
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the time source for expiry checks.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an in-memory nonce store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		entries: make(map[string]Entry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemory) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Value] = e
	return nil
}

// Consume looks up and unconditionally deletes the entry under one lock,
// so exactly one of any set of concurrent callers wins.
func (s *InMemory) Consume(_ context.Context, value string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[value]
	if !ok {
		return OutcomeNotFound, nil
	}
	delete(s.entries, value)

	if s.clock().After(e.ExpiresAt) {
		return OutcomeExpired, nil
	}
	return OutcomeValid, nil
}

// PurgeExpired removes entries whose expiry passed before cutoff.
func (s *InMemory) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for value, e := range s.entries {
		if e.ExpiresAt.Before(cutoff) {
			delete(s.entries, value)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of active entries. Test helper.
func (s *InMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
