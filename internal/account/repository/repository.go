package repository

import (
	"context"

	"dinehub/backend/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
}
