package domain

import "time"

// Session represents an authenticated login on a device.
type Session struct {
	ID               string
	AccountID        string
	Email            string
	Device           string
	IPAddress        string
	ExpiresAt        time.Time
	LogoutAt         *time.Time // nil while the session has not been logged out
	RefreshJTI       string     // current refresh token jti for rotation; empty if not set
	RefreshTokenHash string     // SHA-256 hash of current refresh token
	CreatedAt        time.Time
}

// Active reports whether the session is live at the given instant. Liveness
// is derived, never stored: a session is active exactly when it has not been
// logged out and has not expired.
func (s *Session) Active(now time.Time) bool {
	return s.LogoutAt == nil && now.Before(s.ExpiresAt)
}
