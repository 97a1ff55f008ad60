// Package domain defines the account event envelope shared by the producer
// and every consumer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the account events topic.
const (
	TypeAccountRegistered = "account.registered"
	TypeAccountLoggedIn   = "account.logged_in"
	TypeAccountLoggedOut  = "account.logged_out"
	TypeTokenRefreshed    = "account.token_refreshed"
	TypeProfileDeleted    = "account.profile_deleted"
)

// SchemaVersion is the current envelope version.
const SchemaVersion = "1"

// Envelope is the wire form of one account event. EventID is unique per
// event and is what consumers deduplicate on.
type Envelope struct {
	EventID   string            `json:"eventId"`
	EventType string            `json:"eventType"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
	Version   string            `json:"version"`
	AccountID string            `json:"accountId"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// New returns an envelope for the given type and account, stamped now.
func New(eventType, source, accountID string, payload map[string]string) *Envelope {
	return &Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   SchemaVersion,
		AccountID: accountID,
		Payload:   payload,
	}
}
