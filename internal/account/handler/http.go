// Package handler exposes registration and the token lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dinehub/backend/internal/account/service"
	"dinehub/backend/internal/security"
	"dinehub/backend/internal/server/filters"
)

// CookieConfig controls the auth and refresh cookies set on login and refresh.
type CookieConfig struct {
	AuthName    string
	RefreshName string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// HTTP serves the auth endpoints.
type HTTP struct {
	auth    *service.AuthService
	cookies CookieConfig
	keyring *security.Keyring
	log     *zap.Logger
}

// NewHTTP returns an auth handler. keyring may be nil; when set, issued
// access tokens are sealed under the keyring's default key before they leave
// the service.
func NewHTTP(auth *service.AuthService, cookies CookieConfig, keyring *security.Keyring, log *zap.Logger) *HTTP {
	return &HTTP{auth: auth, cookies: cookies, keyring: keyring, log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	AccountID    string    `json:"accountId"`
	KeyID        string    `json:"keyId,omitempty"`
}

// Register answers POST /api/v1/auth/register.
func (h *HTTP) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"accountId": res.AccountID})
}

// Login answers POST /api/v1/auth/login. Tokens are returned in the body and
// mirrored into cookies for browser clients.
func (h *HTTP) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ip := ""
	if sc, ok := filters.SecurityContextFromContext(r.Context()); ok {
		ip = sc.ClientIP
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password, req.Device, ip)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeTokens(w, res)
}

// Refresh answers POST /api/v1/auth/refresh. The refresh token comes from
// the body or the refresh cookie.
func (h *HTTP) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.RefreshToken
	if token == "" {
		if c, err := r.Cookie(h.cookies.RefreshName); err == nil {
			token = c.Value
		}
	}

	res, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenReuse):
			h.clearAuthCookies(w)
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidRefreshToken):
			writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			h.log.Error("refresh failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.writeTokens(w, res)
}

// Logout answers POST /api/v1/auth/logout. The session is resolved from the
// refresh token (body or cookie) or, for authenticated calls, the principal.
func (h *HTTP) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.RefreshToken
	if token == "" {
		if c, err := r.Cookie(h.cookies.RefreshName); err == nil {
			token = c.Value
		}
	}
	sessionID := ""
	if p, ok := filters.PrincipalFromContext(r.Context()); ok {
		sessionID = p.SessionID
	}

	if err := h.auth.Logout(r.Context(), token, sessionID); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll answers POST /api/v1/auth/logout-all for the authenticated account.
func (h *HTTP) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := filters.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.auth.LogoutAll(r.Context(), p.AccountID); err != nil {
		h.log.Error("logout-all failed", zap.String("account_id", p.AccountID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Delete answers DELETE /api/v1/auth/account for the authenticated account.
func (h *HTTP) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := filters.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.auth.Delete(r.Context(), p.AccountID); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.log.Error("account delete failed", zap.String("account_id", p.AccountID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// writeTokens renders a successful login or refresh: the access token is
// sealed when encryption is deployed, both tokens are mirrored into cookies,
// and the body carries the token pair. The X-Token-Encrypted and X-Key-ID
// response headers tell clients how to present the token back.
func (h *HTTP) writeTokens(w http.ResponseWriter, res *service.AuthResult) {
	keyID := ""
	if h.keyring != nil {
		cipher := h.keyring.Get("")
		if cipher == nil {
			h.log.Error("no cipher for default key id", zap.String("key_id", h.keyring.DefaultID()))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		sealed, err := cipher.Encrypt(res.AccessToken)
		if err != nil {
			h.log.Error("access token encryption failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		res.AccessToken = sealed
		keyID = h.keyring.DefaultID()
		w.Header().Set("X-Token-Encrypted", "1")
		w.Header().Set("X-Key-ID", keyID)
	}
	h.setAuthCookies(w, res)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		AccountID:    res.AccountID,
		KeyID:        keyID,
	})
}

func (h *HTTP) setAuthCookies(w http.ResponseWriter, res *service.AuthResult) {
	if h.cookies.AuthName != "" {
		http.SetCookie(w, sessionCookie(h.cookies.AuthName, res.AccessToken, h.cookies.Secure, h.cookies.AccessTTL))
	}
	if h.cookies.RefreshName != "" {
		http.SetCookie(w, sessionCookie(h.cookies.RefreshName, res.RefreshToken, h.cookies.Secure, h.cookies.RefreshTTL))
	}
}

func (h *HTTP) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{h.cookies.AuthName, h.cookies.RefreshName} {
		if name != "" {
			http.SetCookie(w, deletionCookie(name, h.cookies.Secure))
		}
	}
}

// sessionCookie builds an HttpOnly cookie for the given value and TTL.
func sessionCookie(name, value string, secure bool, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().UTC().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// deletionCookie expires the named cookie. Attributes must match the session
// cookie for the browser to actually drop it.
func deletionCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
