package authority

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/session/domain"
)

// memSessionRepo is an in-memory session repository for tests.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	err      error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *memSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.LogoutAt == nil {
		now := time.Now()
		s.LogoutAt = &now
	}
	return nil
}

func (m *memSessionRepo) RevokeAllByAccount(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range m.sessions {
		if s.AccountID == accountID && s.LogoutAt == nil {
			s.LogoutAt = &now
		}
	}
	return nil
}

func (m *memSessionRepo) UpdateRefreshToken(ctx context.Context, sessionID, jti, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.RefreshJTI = jti
		s.RefreshTokenHash = hash
	}
	return nil
}

func liveSession(id, accountID string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        id,
		AccountID: accountID,
		Email:     "diner@example.com",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
}

func TestLocalCheckActive(t *testing.T) {
	repo := newMemSessionRepo()
	_ = repo.Create(context.Background(), liveSession("s1", "acc1"))
	auth := NewLocal(repo, zap.NewNop())

	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusActive {
		t.Fatalf("Status = %v, want StatusActive (reason %q)", res.Status, res.Reason)
	}
	if res.AccountID != "acc1" || res.Email != "diner@example.com" {
		t.Errorf("identity = %q/%q, want acc1/diner@example.com", res.AccountID, res.Email)
	}
}

func TestLocalCheckUnknownSession(t *testing.T) {
	auth := NewLocal(newMemSessionRepo(), zap.NewNop())

	res := auth.Check(context.Background(), "missing")
	if res.Status != StatusAbsent || res.Reason != ReasonNotFound {
		t.Errorf("result = %v/%q, want StatusAbsent/%s", res.Status, res.Reason, ReasonNotFound)
	}
}

func TestLocalCheckLoggedOutSession(t *testing.T) {
	repo := newMemSessionRepo()
	_ = repo.Create(context.Background(), liveSession("s1", "acc1"))
	_ = repo.Revoke(context.Background(), "s1")
	auth := NewLocal(repo, zap.NewNop())

	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusAbsent || res.Reason != ReasonInactive {
		t.Errorf("result = %v/%q, want StatusAbsent/%s", res.Status, res.Reason, ReasonInactive)
	}
}

func TestLocalCheckExpiredSession(t *testing.T) {
	repo := newMemSessionRepo()
	sess := liveSession("s1", "acc1")
	sess.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	_ = repo.Create(context.Background(), sess)
	auth := NewLocal(repo, zap.NewNop())

	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusAbsent || res.Reason != ReasonInactive {
		t.Errorf("result = %v/%q, want StatusAbsent/%s", res.Status, res.Reason, ReasonInactive)
	}
}

func TestLocalCheckStoreFailure(t *testing.T) {
	repo := newMemSessionRepo()
	repo.err = errors.New("connection refused")
	auth := NewLocal(repo, zap.NewNop())

	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusUnavailable || res.Reason != ReasonUnavailable {
		t.Errorf("result = %v/%q, want StatusUnavailable/%s", res.Status, res.Reason, ReasonUnavailable)
	}
}
