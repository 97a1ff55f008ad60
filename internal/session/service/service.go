package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dinehub/backend/internal/session/domain"
	"dinehub/backend/internal/session/repository"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Service manages the session lifecycle. Liveness is never stored: it is
// derived from logout_at and expires_at on every read.
type Service struct {
	repo repository.Repository
}

// NewService returns a Service backed by the given repository.
func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Start creates a live session for the account and returns it.
func (s *Service) Start(ctx context.Context, accountID, email, device, ipAddress string, ttl time.Duration) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Email:     email,
		Device:    device,
		IPAddress: ipAddress,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session for id, or ErrSessionNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// List returns all sessions for the account, live and ended.
func (s *Service) List(ctx context.Context, accountID string) ([]*domain.Session, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Revoke ends the session. Revoking an already-ended session is a no-op.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.repo.Revoke(ctx, id)
}

// RevokeAll ends every live session of the account.
func (s *Service) RevokeAll(ctx context.Context, accountID string) error {
	return s.repo.RevokeAllByAccount(ctx, accountID)
}
