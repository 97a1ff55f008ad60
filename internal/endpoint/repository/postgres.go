package repository

import (
	"context"
	"database/sql"
	"time"

	"dinehub/backend/internal/endpoint/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a descriptor repository over the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActive returns all active descriptors ordered by name.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*domain.Descriptor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, method, path_pattern, security, rate_limit, rate_window, is_public, is_active, updated_at
		FROM endpoint_descriptors
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Descriptor
	for rows.Next() {
		var d domain.Descriptor
		var windowSeconds int
		if err := rows.Scan(&d.Name, &d.Method, &d.PathPattern, &d.Security, &d.RateLimit, &windowSeconds, &d.Public, &d.Active, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.RateWindow = time.Duration(windowSeconds) * time.Second
		out = append(out, &d)
	}
	return out, rows.Err()
}
