package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dinehub/backend/internal/server/filters"
	"dinehub/backend/internal/session/domain"
	"dinehub/backend/internal/session/service"
)

type memSessions struct {
	sessions map[string]*domain.Session
}

func (m *memSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) List(ctx context.Context, accountID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) Revoke(ctx context.Context, id string) error {
	if s, ok := m.sessions[id]; ok && s.LogoutAt == nil {
		now := time.Now()
		s.LogoutAt = &now
	}
	return nil
}

func newRouter(sessions *memSessions) http.Handler {
	h := NewHTTP(sessions, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/v1/sessions/{sessionID}/validate", h.Validate)
	r.Get("/api/v1/sessions", h.List)
	r.Delete("/api/v1/sessions/{sessionID}", h.Revoke)
	return r
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

func TestValidateLiveSession(t *testing.T) {
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{
		"s1": liveSession("s1", "acc-1"),
	}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/s1/validate", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var res ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Valid || res.AccountID != "acc-1" || res.Email != "diner@example.com" {
		t.Errorf("response = %+v", res)
	}
}

func TestValidateUnknownSession(t *testing.T) {
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/missing/validate", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var res ValidateResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Valid || res.ErrorCode != "SESSION_NOT_FOUND" {
		t.Errorf("response = %+v", res)
	}
}

func TestValidateLoggedOutSession(t *testing.T) {
	s := liveSession("s1", "acc-1")
	now := time.Now()
	s.LogoutAt = &now
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{"s1": s}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/s1/validate", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var res ValidateResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.ErrorCode != "SESSION_INACTIVE" {
		t.Errorf("ErrorCode = %q, want SESSION_INACTIVE", res.ErrorCode)
	}
}

func TestValidateExpiredSession(t *testing.T) {
	s := liveSession("s1", "acc-1")
	s.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{"s1": s}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/s1/validate", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListOwnSessions(t *testing.T) {
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{
		"s1": liveSession("s1", "acc-1"),
		"s2": liveSession("s2", "acc-1"),
		"s3": liveSession("s3", "acc-2"),
	}})

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req = req.WithContext(filters.WithPrincipal(req.Context(), &filters.Principal{AccountID: "acc-1"}))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res struct {
		Sessions []sessionView `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(res.Sessions))
	}
}

func TestRevokeOwnSession(t *testing.T) {
	store := &memSessions{sessions: map[string]*domain.Session{
		"s1": liveSession("s1", "acc-1"),
	}}
	srv := newRouter(store)

	req := httptest.NewRequest("DELETE", "/api/v1/sessions/s1", nil)
	req = req.WithContext(filters.WithPrincipal(req.Context(), &filters.Principal{AccountID: "acc-1"}))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if store.sessions["s1"].LogoutAt == nil {
		t.Error("session not revoked")
	}
}

func TestRevokeForeignSessionForbidden(t *testing.T) {
	srv := newRouter(&memSessions{sessions: map[string]*domain.Session{
		"s1": liveSession("s1", "acc-other"),
	}})

	req := httptest.NewRequest("DELETE", "/api/v1/sessions/s1", nil)
	req = req.WithContext(filters.WithPrincipal(req.Context(), &filters.Principal{AccountID: "acc-1"}))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
