package repository

import (
	"context"

	"dinehub/backend/internal/endpoint/domain"
)

// Repository defines read access to endpoint descriptors. The core never
// mutates descriptors; administration happens out of band.
type Repository interface {
	// ListActive returns all active descriptors.
	ListActive(ctx context.Context) ([]*domain.Descriptor, error)
}
