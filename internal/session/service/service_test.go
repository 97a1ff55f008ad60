package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dinehub/backend/internal/session/domain"
)

type memRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]*domain.Session)}
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
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

func (m *memRepo) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memRepo) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.LogoutAt == nil {
		now := time.Now()
		s.LogoutAt = &now
	}
	return nil
}

func (m *memRepo) RevokeAllByAccount(ctx context.Context, accountID string) error {
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

func (m *memRepo) UpdateRefreshToken(ctx context.Context, sessionID, jti, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.RefreshJTI = jti
		s.RefreshTokenHash = hash
	}
	return nil
}

func TestStartCreatesLiveSession(t *testing.T) {
	svc := NewService(newMemRepo())

	sess, err := svc.Start(context.Background(), "acc1", "diner@example.com", "iphone", "10.0.0.1", time.Hour)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("session ID is empty")
	}
	if !sess.Active(time.Now().UTC()) {
		t.Error("new session is not active")
	}

	got, err := svc.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccountID != "acc1" || got.Email != "diner@example.com" {
		t.Errorf("stored session = %q/%q", got.AccountID, got.Email)
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc := NewService(newMemRepo())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeEndsSession(t *testing.T) {
	svc := NewService(newMemRepo())
	sess, _ := svc.Start(context.Background(), "acc1", "a@b.c", "", "", time.Hour)

	if err := svc.Revoke(context.Background(), sess.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	got, _ := svc.Get(context.Background(), sess.ID)
	if got.Active(time.Now().UTC()) {
		t.Error("revoked session is still active")
	}
	if got.LogoutAt == nil {
		t.Error("LogoutAt not stamped")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc := NewService(newMemRepo())
	sess, _ := svc.Start(context.Background(), "acc1", "a@b.c", "", "", time.Hour)

	_ = svc.Revoke(context.Background(), sess.ID)
	first, _ := svc.Get(context.Background(), sess.ID)

	time.Sleep(5 * time.Millisecond)
	if err := svc.Revoke(context.Background(), sess.ID); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
	second, _ := svc.Get(context.Background(), sess.ID)
	if !second.LogoutAt.Equal(*first.LogoutAt) {
		t.Error("second revoke changed the logout timestamp")
	}
}

func TestRevokeAllScopedToAccount(t *testing.T) {
	svc := NewService(newMemRepo())
	a1, _ := svc.Start(context.Background(), "acc1", "a@b.c", "", "", time.Hour)
	a2, _ := svc.Start(context.Background(), "acc1", "a@b.c", "", "", time.Hour)
	b1, _ := svc.Start(context.Background(), "acc2", "x@y.z", "", "", time.Hour)

	if err := svc.RevokeAll(context.Background(), "acc1"); err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}
	now := time.Now().UTC()
	for _, id := range []string{a1.ID, a2.ID} {
		s, _ := svc.Get(context.Background(), id)
		if s.Active(now) {
			t.Errorf("session %s still active after RevokeAll", id)
		}
	}
	s, _ := svc.Get(context.Background(), b1.ID)
	if !s.Active(now) {
		t.Error("other account's session was revoked")
	}
}

func TestExpiryEndsLiveness(t *testing.T) {
	svc := NewService(newMemRepo())
	sess, _ := svc.Start(context.Background(), "acc1", "a@b.c", "", "", 10*time.Millisecond)

	if !sess.Active(time.Now().UTC()) {
		t.Fatal("session not active right after start")
	}
	if sess.Active(sess.ExpiresAt.Add(time.Second)) {
		t.Error("session active past its expiry")
	}
}
