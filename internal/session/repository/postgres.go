package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dinehub/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, account_id, email, device, ip_address, expires_at, logout_at, refresh_jti, refresh_token_hash, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByAccount returns all sessions for the account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.AccountID, s.Email, s.Device,
		nullString(s.IPAddress), s.ExpiresAt, nullTime(s.LogoutAt),
		nullString(s.RefreshJTI), nullString(s.RefreshTokenHash), s.CreatedAt)
	return err
}

// Revoke stamps logout_at on the session. Already-revoked sessions keep their
// original logout time, so the operation is idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET logout_at = $2 WHERE id = $1 AND logout_at IS NULL`,
		id, time.Now())
	return err
}

// RevokeAllByAccount stamps logout_at on every live session of the account in
// a single statement.
func (r *PostgresRepository) RevokeAllByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET logout_at = $2 WHERE account_id = $1 AND logout_at IS NULL`,
		accountID, time.Now())
	return err
}

// UpdateRefreshToken sets the session's current refresh token jti and hash for rotation.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_jti = $2, refresh_token_hash = $3 WHERE id = $1`,
		sessionID, nullString(jti), nullString(refreshTokenHash))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s        domain.Session
		ip, jti  sql.NullString
		hash     sql.NullString
		logoutAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.AccountID, &s.Email, &s.Device,
		&ip, &s.ExpiresAt, &logoutAt, &jti, &hash, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.IPAddress = ip.String
	s.RefreshJTI = jti.String
	s.RefreshTokenHash = hash.String
	if logoutAt.Valid {
		t := logoutAt.Time
		s.LogoutAt = &t
	}
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
