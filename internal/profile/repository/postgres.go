package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	accountdomain "dinehub/backend/internal/account/domain"
	"dinehub/backend/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByAccountID returns the profile for the account, or nil if not found.
func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error) {
	var (
		p        domain.Profile
		roles    string
		lastSeen sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, email, name, roles, is_active, last_seen_at, updated_at FROM profiles WHERE account_id = $1`,
		accountID).Scan(&p.AccountID, &p.Email, &p.Name, &roles, &p.IsActive, &lastSeen, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Roles = accountdomain.SplitRoles(roles)
	if lastSeen.Valid {
		p.LastSeenAt = &lastSeen.Time
	}
	return &p, nil
}

// Upsert writes the projection row. Replaying the same event is harmless:
// the row converges to the same state.
func (r *PostgresRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (account_id, email, name, roles, is_active, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (account_id) DO UPDATE SET
		   email = EXCLUDED.email,
		   name = EXCLUDED.name,
		   roles = EXCLUDED.roles,
		   is_active = EXCLUDED.is_active,
		   updated_at = EXCLUDED.updated_at`,
		p.AccountID, p.Email, p.Name, accountdomain.JoinRoles(p.Roles), p.IsActive, p.UpdatedAt)
	return err
}

// Disable marks the projection inactive. Disabling a missing or already
// disabled profile is a no-op.
func (r *PostgresRepository) Disable(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_active = FALSE, updated_at = $2 WHERE account_id = $1`,
		accountID, time.Now().UTC())
	return err
}

// Touch records session activity for the account. Missing profiles are a
// no-op: the registered event may still be in flight.
func (r *PostgresRepository) Touch(ctx context.Context, accountID string, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET last_seen_at = $2 WHERE account_id = $1 AND (last_seen_at IS NULL OR last_seen_at < $2)`,
		accountID, seenAt)
	return err
}
