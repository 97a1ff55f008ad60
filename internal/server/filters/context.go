// Package filters implements the request security pipeline: each endpoint
// class maps to an ordered chain of filters that either pass the request on
// with an enriched context or stop it with a typed failure.
package filters

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	endpointdomain "dinehub/backend/internal/endpoint/domain"
)

type contextKey struct{ name string }

var (
	securityContextKey = contextKey{"security-context"}
	principalKey       = contextKey{"principal"}
	descriptorKey      = contextKey{"endpoint-descriptor"}
)

// SecurityContext carries per-request metadata collected before any
// authentication decision is made.
type SecurityContext struct {
	RequestID string
	ClientIP  string
	Method    string
	Path      string
}

// Principal is the authenticated caller, attached to the context by the
// token filter after the session authority confirms the session is live.
type Principal struct {
	AccountID string
	SessionID string
	Email     string
	Roles     []string
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithSecurityContext returns ctx carrying sc.
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sc)
}

// SecurityContextFromContext returns the request's SecurityContext, if set.
func SecurityContextFromContext(ctx context.Context) (*SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey).(*SecurityContext)
	return sc, ok
}

// WithPrincipal returns ctx carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// WithDescriptor returns ctx carrying the classified endpoint descriptor.
func WithDescriptor(ctx context.Context, d *endpointdomain.Descriptor) context.Context {
	return context.WithValue(ctx, descriptorKey, d)
}

// DescriptorFromContext returns the classified endpoint descriptor, if any.
// Unclassified requests have none.
func DescriptorFromContext(ctx context.Context) (*endpointdomain.Descriptor, bool) {
	d, ok := ctx.Value(descriptorKey).(*endpointdomain.Descriptor)
	return d, ok
}

// clientIP resolves the caller address: the first hop of X-Forwarded-For when
// present, otherwise the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestID returns the inbound X-Request-ID or mints a new one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}
