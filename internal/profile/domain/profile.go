package domain

import "time"

// Profile is the read model of an account, projected from account events.
// It is eventually consistent with the auth service's accounts table.
type Profile struct {
	AccountID  string
	Email      string
	Name       string
	Roles      []string
	IsActive   bool
	LastSeenAt *time.Time
	UpdatedAt  time.Time
}
