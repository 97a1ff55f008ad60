package authority

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/session/repository"
)

// Local answers session checks straight from the session store. Used by the
// service that owns the sessions table.
type Local struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewLocal returns an Authority backed by the given session repository.
func NewLocal(repo repository.Repository, log *zap.Logger) *Local {
	return &Local{repo: repo, log: log}
}

// Check looks the session up and derives liveness at the current instant.
// Store failures yield StatusUnavailable so callers deny the request.
func (l *Local) Check(ctx context.Context, sessionID string) Result {
	sess, err := l.repo.GetByID(ctx, sessionID)
	if err != nil {
		l.log.Warn("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Status: StatusUnavailable, Reason: ReasonUnavailable}
	}
	if sess == nil {
		return Result{Status: StatusAbsent, Reason: ReasonNotFound}
	}
	if !sess.Active(time.Now().UTC()) {
		return Result{Status: StatusAbsent, Reason: ReasonInactive}
	}
	return Result{
		Status:    StatusActive,
		AccountID: sess.AccountID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
}
