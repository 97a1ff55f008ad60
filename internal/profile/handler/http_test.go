package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/profile/domain"
	"dinehub/backend/internal/server/filters"
)

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *memProfileRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.AccountID] = &cp
	return nil
}

func (r *memProfileRepo) Disable(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[accountID]; ok {
		p.IsActive = false
	}
	return nil
}

func (r *memProfileRepo) Touch(ctx context.Context, accountID string, seenAt time.Time) error {
	return nil
}

func meRequest(accountID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	if accountID != "" {
		ctx := filters.WithPrincipal(req.Context(), &filters.Principal{AccountID: accountID})
		req = req.WithContext(ctx)
	}
	return req
}

func TestMeReturnsProfile(t *testing.T) {
	repo := newMemProfileRepo()
	seen := time.Now().UTC().Truncate(time.Second)
	_ = repo.Upsert(context.Background(), &domain.Profile{
		AccountID:  "acc-1",
		Email:      "diner@example.com",
		Name:       "Pat Diner",
		Roles:      []string{"customer"},
		IsActive:   true,
		LastSeenAt: &seen,
		UpdatedAt:  seen,
	})
	h := NewHTTP(repo, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Me(rec, meRequest("acc-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AccountID != "acc-1" || got.Email != "diner@example.com" {
		t.Errorf("response = %+v", got)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(seen) {
		t.Errorf("lastSeenAt = %v, want %v", got.LastSeenAt, seen)
	}
}

func TestMeWithoutPrincipal(t *testing.T) {
	h := NewHTTP(newMemProfileRepo(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Me(rec, meRequest(""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMeUnknownOrDisabled(t *testing.T) {
	repo := newMemProfileRepo()
	_ = repo.Upsert(context.Background(), &domain.Profile{
		AccountID: "acc-2",
		Email:     "gone@example.com",
		IsActive:  false,
		UpdatedAt: time.Now().UTC(),
	})
	h := NewHTTP(repo, zap.NewNop())

	for _, accountID := range []string{"acc-missing", "acc-2"} {
		rec := httptest.NewRecorder()
		h.Me(rec, meRequest(accountID))
		if rec.Code != http.StatusNotFound {
			t.Errorf("Me(%s) status = %d, want 404", accountID, rec.Code)
		}
	}
}
