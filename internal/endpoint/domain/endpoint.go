package domain

import "time"

// Security classifies an endpoint's authentication requirement.
type Security string

const (
	// SecurityPublic marks endpoints served without identity checks.
	SecurityPublic Security = "PUBLIC"
	// SecurityJWT marks endpoints that require a verified token and live session.
	SecurityJWT Security = "JWT"
)

// Descriptor is the security classification of one endpoint. Descriptors are
// administered outside this core and read-only here.
type Descriptor struct {
	// Name uniquely identifies the descriptor (e.g. "orders-api").
	Name string
	// Method is the HTTP method this descriptor covers, or "*" for any.
	Method string
	// PathPattern matches request paths. Literal segments match exactly,
	// "{x}" matches any single segment, a trailing "**" matches any suffix.
	PathPattern string
	// Security selects the filter chain: PUBLIC or JWT.
	Security Security
	// RateLimit is the allowed request count per RateWindow; 0 disables limiting.
	RateLimit int
	// RateWindow is the rate-limit window length.
	RateWindow time.Duration
	// Public mirrors Security == PUBLIC for administrative listing.
	Public bool
	// Active gates the descriptor; an inactive descriptor is treated as not found.
	Active bool
	// UpdatedAt is the last administrative change.
	UpdatedAt time.Time
}
