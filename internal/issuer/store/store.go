// Package store persists registered issuers.
package store

import (
	"context"

	"github.com/google/uuid"

	"worldpass/internal/issuer/models"
)

// Store is the issuer registry storage contract. Lookups that miss return
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, issuer *models.Issuer) error
	Update(ctx context.Context, issuer *models.Issuer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error)
	FindByAPIKeyHash(ctx context.Context, hash string) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}
