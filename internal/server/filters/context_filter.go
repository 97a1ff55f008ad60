package filters

import (
	"context"
	"net/http"
)

// ContextFilter seeds the SecurityContext for every request. It never fails:
// request metadata is collected even for requests later denied.
type ContextFilter struct{}

// NewContextFilter returns the metadata filter.
func NewContextFilter() *ContextFilter { return &ContextFilter{} }

func (f *ContextFilter) Name() string { return "security-context" }

func (f *ContextFilter) Apply(ctx context.Context, r *http.Request) (context.Context, *Failure) {
	sc := &SecurityContext{
		RequestID: requestID(r),
		ClientIP:  clientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
	}
	return WithSecurityContext(ctx, sc), nil
}
