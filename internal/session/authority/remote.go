package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Remote consults the auth service's session validation endpoint over HTTP.
// Services that do not own the sessions table use this authority. Any
// transport failure, timeout, or unexpected response is StatusUnavailable:
// the caller denies the request rather than guessing.
type Remote struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewRemote returns an Authority calling the auth service at baseURL.
// Every check is bounded by timeout regardless of the caller's context.
func NewRemote(baseURL string, timeout time.Duration, log *zap.Logger) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// validateResponse mirrors the auth service's session validation payload.
type validateResponse struct {
	Valid     bool      `json:"valid"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	ErrorCode string    `json:"errorCode,omitempty"`
}

// Check calls GET /api/v1/sessions/{id}/validate on the auth service.
func (r *Remote) Check(ctx context.Context, sessionID string) Result {
	endpoint := fmt.Sprintf("%s/api/v1/sessions/%s/validate", r.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Status: StatusUnavailable, Reason: ReasonUnavailable}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("session validation call failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Status: StatusUnavailable, Reason: ReasonUnavailable}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusNotFound:
		// Both valid and invalid sessions carry a decoded body.
	default:
		r.log.Warn("session validation unexpected status",
			zap.String("session_id", sessionID), zap.Int("status", resp.StatusCode))
		return Result{Status: StatusUnavailable, Reason: ReasonUnavailable}
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.log.Warn("session validation bad response", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Status: StatusUnavailable, Reason: ReasonUnavailable}
	}

	if !body.Valid {
		reason := body.ErrorCode
		if reason == "" {
			reason = ReasonNotFound
		}
		return Result{Status: StatusAbsent, Reason: reason}
	}
	return Result{
		Status:    StatusActive,
		AccountID: body.AccountID,
		Email:     body.Email,
		CreatedAt: body.CreatedAt,
		ExpiresAt: body.ExpiresAt,
	}
}
