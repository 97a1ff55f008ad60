package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	accountdomain "dinehub/backend/internal/account/domain"
	eventdomain "dinehub/backend/internal/events/domain"
	"dinehub/backend/internal/profile/domain"
	"dinehub/backend/internal/profile/repository"
)

// Deduper suppresses duplicate event deliveries.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// Projector folds account events into the profile read model. Handlers are
// idempotent: Kafka delivers at-least-once and the dedup check itself is
// best-effort.
type Projector struct {
	profiles repository.Repository
	dedup    Deduper
	log      *zap.Logger
}

// NewProjector returns a Projector. dedup may be nil; every delivery is then
// applied, which is safe because projection writes are idempotent.
func NewProjector(profiles repository.Repository, dedup Deduper, log *zap.Logger) *Projector {
	return &Projector{profiles: profiles, dedup: dedup, log: log}
}

// Handle applies one account event. Event types the projection does not
// track are skipped.
func (p *Projector) Handle(ctx context.Context, e *eventdomain.Envelope) error {
	if p.dedup != nil {
		seen, err := p.dedup.Seen(ctx, e.EventID)
		if err != nil {
			p.log.Warn("event dedup unavailable", zap.String("event_id", e.EventID), zap.Error(err))
		} else if seen {
			p.log.Debug("duplicate event skipped", zap.String("event_id", e.EventID))
			return nil
		}
	}

	switch e.EventType {
	case eventdomain.TypeAccountRegistered:
		return p.profiles.Upsert(ctx, &domain.Profile{
			AccountID: e.AccountID,
			Email:     e.Payload["email"],
			Name:      e.Payload["name"],
			Roles:     accountdomain.SplitRoles(e.Payload["roles"]),
			IsActive:  true,
			UpdatedAt: eventTime(e),
		})
	case eventdomain.TypeProfileDeleted:
		return p.profiles.Disable(ctx, e.AccountID)
	case eventdomain.TypeAccountLoggedIn, eventdomain.TypeAccountLoggedOut, eventdomain.TypeTokenRefreshed:
		// Session traffic only moves the last-seen marker. Touch is
		// monotonic, so out-of-order deliveries cannot rewind it.
		return p.profiles.Touch(ctx, e.AccountID, eventTime(e))
	default:
		p.log.Warn("unknown event type skipped",
			zap.String("event_id", e.EventID), zap.String("event_type", e.EventType))
		return nil
	}
}

func eventTime(e *eventdomain.Envelope) time.Time {
	if e.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return e.Timestamp
}
