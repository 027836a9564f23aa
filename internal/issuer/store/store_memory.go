package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"worldpass/internal/issuer/models"
	"worldpass/pkg/platform/sentinel"
)

// InMemory keeps issuers in a mutex-guarded map.
type InMemory struct {
	mu      sync.RWMutex
	issuers map[uuid.UUID]models.Issuer
}

func NewInMemory() *InMemory {
	return &InMemory{issuers: make(map[uuid.UUID]models.Issuer)}
}

func (s *InMemory) Create(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuers[issuer.ID]; exists {
		return sentinel.ErrConflict
	}
	s.issuers[issuer.ID] = *issuer
	return nil
}

func (s *InMemory) Update(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuers[issuer.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.issuers[issuer.ID] = *issuer
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, ok := s.issuers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := issuer
	return &copied, nil
}

func (s *InMemory) FindByAPIKeyHash(_ context.Context, hash string) (*models.Issuer, error) {
	if hash == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, issuer := range s.issuers {
		if issuer.APIKeyHash == hash {
			copied := issuer
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Issuer, 0, len(s.issuers))
	for _, issuer := range s.issuers {
		copied := issuer
		out = append(out, &copied)
	}
	// Newest first, matching the Postgres store.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
