package domain

import (
	"errors"
	"strings"
	"time"
)

// Account is the core account entity.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusDeleted AccountStatus = "deleted"
)

// Platform roles. Roles are a flat set: an account may hold several, and a
// protected endpoint requires at least one of its allowed roles.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.Status == "" {
		a.Status = AccountStatusActive
	}
	if len(a.Roles) == 0 {
		a.Roles = []string{RoleCustomer}
	}
	for _, r := range a.Roles {
		if r != RoleCustomer && r != RoleStaff && r != RoleAdmin {
			return errors.New("unknown role: " + r)
		}
	}
	return nil
}

// HasRole reports whether the account holds the given role.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// JoinRoles renders the role set for storage as a comma-separated string.
func JoinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

// SplitRoles parses a stored role string back into a role set.
func SplitRoles(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
