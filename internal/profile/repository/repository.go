package repository

import (
	"context"
	"time"

	"dinehub/backend/internal/profile/domain"
)

// Repository defines persistence for the profile projection.
type Repository interface {
	GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
	Disable(ctx context.Context, accountID string) error
	Touch(ctx context.Context, accountID string, seenAt time.Time) error
}
