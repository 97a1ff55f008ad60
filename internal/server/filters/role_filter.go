package filters

import (
	"context"
	"net/http"
	"strings"
)

// RoleFilter requires the authenticated principal to hold at least one of
// the allowed roles. It must run after the JWT filter.
type RoleFilter struct {
	allowed []string
}

// NewRoleFilter returns a filter allowing only the given roles.
func NewRoleFilter(roles ...string) *RoleFilter {
	return &RoleFilter{allowed: roles}
}

func (f *RoleFilter) Name() string { return "require-role:" + strings.Join(f.allowed, ",") }

func (f *RoleFilter) Apply(ctx context.Context, r *http.Request) (context.Context, *Failure) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ctx, NewFailure(FailureAuthenticationRequired, "TOKEN_MISSING", "authentication required")
	}
	for _, role := range f.allowed {
		if p.HasRole(role) {
			return ctx, nil
		}
	}
	return ctx, NewFailure(FailureForbidden, "ROLE_REQUIRED", "insufficient role")
}
