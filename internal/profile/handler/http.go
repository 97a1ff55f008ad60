// Package handler exposes the profile read model over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/profile/repository"
	"dinehub/backend/internal/server/filters"
)

// HTTP serves the profile endpoints.
type HTTP struct {
	profiles repository.Repository
	log      *zap.Logger
}

// NewHTTP returns a profile handler.
func NewHTTP(profiles repository.Repository, log *zap.Logger) *HTTP {
	return &HTTP{profiles: profiles, log: log}
}

type profileResponse struct {
	AccountID  string     `json:"accountId"`
	Email      string     `json:"email"`
	Name       string     `json:"name,omitempty"`
	Roles      []string   `json:"roles"`
	IsActive   bool       `json:"isActive"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Me answers GET /api/v1/profiles/me for the authenticated account. The
// projection is eventually consistent; right after registration it may lag
// the auth service by a moment, which reads as 404 here.
func (h *HTTP) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := filters.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	prof, err := h.profiles.GetByAccountID(r.Context(), p.AccountID)
	if err != nil {
		h.log.Error("profile lookup failed", zap.String("account_id", p.AccountID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if prof == nil || !prof.IsActive {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		AccountID:  prof.AccountID,
		Email:      prof.Email,
		Name:       prof.Name,
		Roles:      prof.Roles,
		IsActive:   prof.IsActive,
		LastSeenAt: prof.LastSeenAt,
		UpdatedAt:  prof.UpdatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
