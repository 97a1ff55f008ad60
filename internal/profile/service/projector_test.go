package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dinehub/backend/internal/events/dedup"
	eventdomain "dinehub/backend/internal/events/domain"
	"dinehub/backend/internal/profile/domain"
)

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	upserts  int
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
	r.upserts++
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
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[accountID]
	if !ok {
		return nil
	}
	if p.LastSeenAt == nil || p.LastSeenAt.Before(seenAt) {
		t := seenAt
		p.LastSeenAt = &t
	}
	return nil
}

func registeredEvent(accountID string) *eventdomain.Envelope {
	return eventdomain.New(eventdomain.TypeAccountRegistered, "authserver", accountID, map[string]string{
		"email": "diner@example.com",
		"name":  "Pat Diner",
		"roles": "customer",
	})
}

func TestHandleRegisteredCreatesProfile(t *testing.T) {
	repo := newMemProfileRepo()
	p := NewProjector(repo, nil, zap.NewNop())

	if err := p.Handle(context.Background(), registeredEvent("acc-1")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	prof, _ := repo.GetByAccountID(context.Background(), "acc-1")
	if prof == nil {
		t.Fatal("profile not created")
	}
	if prof.Email != "diner@example.com" || !prof.IsActive {
		t.Errorf("profile = %+v", prof)
	}
	if len(prof.Roles) != 1 || prof.Roles[0] != "customer" {
		t.Errorf("roles = %v, want [customer]", prof.Roles)
	}
}

func TestHandleDeletedDisablesProfile(t *testing.T) {
	repo := newMemProfileRepo()
	p := NewProjector(repo, nil, zap.NewNop())
	_ = p.Handle(context.Background(), registeredEvent("acc-1"))

	e := eventdomain.New(eventdomain.TypeProfileDeleted, "authserver", "acc-1", nil)
	if err := p.Handle(context.Background(), e); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	prof, _ := repo.GetByAccountID(context.Background(), "acc-1")
	if prof.IsActive {
		t.Error("profile still active after delete event")
	}
}

func TestHandleDuplicateEventSkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemProfileRepo()
	p := NewProjector(repo, dedup.New(rdb, time.Hour), zap.NewNop())

	e := registeredEvent("acc-1")
	if err := p.Handle(context.Background(), e); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if err := p.Handle(context.Background(), e); err != nil {
		t.Fatalf("duplicate Handle() error = %v", err)
	}
	if repo.upserts != 1 {
		t.Errorf("upserts = %d, want 1", repo.upserts)
	}
}

func TestHandleDedupOutageStillApplies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	repo := newMemProfileRepo()
	p := NewProjector(repo, dedup.New(rdb, time.Hour), zap.NewNop())

	if err := p.Handle(context.Background(), registeredEvent("acc-1")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if repo.upserts != 1 {
		t.Errorf("upserts = %d, want 1 even with dedup down", repo.upserts)
	}
}

func TestHandleSessionEventsTouchLastSeen(t *testing.T) {
	repo := newMemProfileRepo()
	p := NewProjector(repo, nil, zap.NewNop())
	_ = p.Handle(context.Background(), registeredEvent("acc-1"))

	login := eventdomain.New(eventdomain.TypeAccountLoggedIn, "authserver", "acc-1", nil)
	if err := p.Handle(context.Background(), login); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	prof, _ := repo.GetByAccountID(context.Background(), "acc-1")
	if prof.LastSeenAt == nil || !prof.LastSeenAt.Equal(login.Timestamp) {
		t.Errorf("LastSeenAt = %v, want %v", prof.LastSeenAt, login.Timestamp)
	}

	// A stale logout delivered late must not rewind the marker.
	stale := eventdomain.New(eventdomain.TypeAccountLoggedOut, "authserver", "acc-1", nil)
	stale.Timestamp = login.Timestamp.Add(-time.Minute)
	if err := p.Handle(context.Background(), stale); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	prof, _ = repo.GetByAccountID(context.Background(), "acc-1")
	if !prof.LastSeenAt.Equal(login.Timestamp) {
		t.Errorf("LastSeenAt = %v after stale event, want %v", prof.LastSeenAt, login.Timestamp)
	}
}

func TestHandleUnknownEventSkipped(t *testing.T) {
	repo := newMemProfileRepo()
	p := NewProjector(repo, nil, zap.NewNop())

	e := eventdomain.New("something.unknown", "authserver", "acc-1", nil)
	if err := p.Handle(context.Background(), e); err != nil {
		t.Errorf("Handle() error = %v", err)
	}
	if repo.upserts != 0 {
		t.Errorf("upserts = %d, want 0", repo.upserts)
	}
}
