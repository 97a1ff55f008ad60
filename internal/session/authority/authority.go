// Package authority answers "is this session still good?" for request
// authentication. The answer comes either from the local session store or
// from the auth service over HTTP, behind one interface, so services that
// do not own sessions authenticate exactly like the one that does.
package authority

import (
	"context"
	"time"
)

// Status classifies an authority answer.
type Status int

const (
	// StatusActive means the session exists and is live.
	StatusActive Status = iota
	// StatusAbsent means the session does not exist or is no longer live.
	StatusAbsent
	// StatusUnavailable means the authority could not be consulted.
	// Callers must treat this as a denied request, never as a pass.
	StatusUnavailable
)

// Result is the authority's answer for one session id.
type Result struct {
	Status    Status
	AccountID string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Reason    string // machine-readable code when Status is not Active
}

// Reason codes reported in Result.Reason.
const (
	ReasonNotFound    = "SESSION_NOT_FOUND"
	ReasonInactive    = "SESSION_INACTIVE"
	ReasonUnavailable = "AUTH_SERVICE_UNAVAILABLE"
)

// Authority checks whether a session is live.
type Authority interface {
	Check(ctx context.Context, sessionID string) Result
}
