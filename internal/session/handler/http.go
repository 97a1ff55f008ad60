// Package handler exposes session validation and management over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dinehub/backend/internal/server/filters"
	"dinehub/backend/internal/session/domain"
	"dinehub/backend/internal/session/service"
)

// SessionService is the session lifecycle surface the handler needs.
type SessionService interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context, accountID string) ([]*domain.Session, error)
	Revoke(ctx context.Context, id string) error
}

// HTTP serves the session endpoints.
type HTTP struct {
	sessions SessionService
	log      *zap.Logger
}

// NewHTTP returns a session handler.
func NewHTTP(sessions SessionService, log *zap.Logger) *HTTP {
	return &HTTP{sessions: sessions, log: log}
}

// ValidateResponse is the wire form of a session validation answer. Remote
// authorities in other services decode exactly this shape.
type ValidateResponse struct {
	Valid        bool      `json:"valid"`
	AccountID    string    `json:"accountId,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// sessionView is one session in a listing.
type sessionView struct {
	ID        string     `json:"id"`
	Device    string     `json:"device,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	LogoutAt  *time.Time `json:"logoutAt,omitempty"`
	Active    bool       `json:"active"`
}

// Validate answers GET /api/v1/sessions/{sessionID}/validate. A live session
// returns 200 with the session identity; anything else returns 401 with an
// error code. Liveness is derived at this instant, never read from a flag.
func (h *HTTP) Validate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeJSON(w, http.StatusUnauthorized, ValidateResponse{
				Valid:        false,
				ErrorCode:    "SESSION_NOT_FOUND",
				ErrorMessage: "session does not exist",
			})
			return
		}
		h.log.Error("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ValidateResponse{
			Valid:     false,
			ErrorCode: "INTERNAL",
		})
		return
	}

	if !sess.Active(time.Now().UTC()) {
		writeJSON(w, http.StatusUnauthorized, ValidateResponse{
			Valid:        false,
			ErrorCode:    "SESSION_INACTIVE",
			ErrorMessage: "session has been logged out or expired",
		})
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:     true,
		AccountID: sess.AccountID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
}

// List answers GET /api/v1/sessions with the caller's own sessions.
func (h *HTTP) List(w http.ResponseWriter, r *http.Request) {
	p, ok := filters.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	sessions, err := h.sessions.List(r.Context(), p.AccountID)
	if err != nil {
		h.log.Error("session list failed", zap.String("account_id", p.AccountID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	now := time.Now().UTC()
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:        s.ID,
			Device:    s.Device,
			IPAddress: s.IPAddress,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			LogoutAt:  s.LogoutAt,
			Active:    s.Active(now),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// Revoke answers DELETE /api/v1/sessions/{sessionID}. Callers may only end
// sessions belonging to their own account.
func (h *HTTP) Revoke(w http.ResponseWriter, r *http.Request) {
	p, ok := filters.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		h.log.Error("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if sess.AccountID != p.AccountID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "session belongs to another account"})
		return
	}

	if err := h.sessions.Revoke(r.Context(), sessionID); err != nil {
		h.log.Error("session revoke failed", zap.String("session_id", sessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
