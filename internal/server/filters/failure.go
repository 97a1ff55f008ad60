package filters

import (
	"encoding/json"
	"net/http"
)

// FailureKind classifies why a filter stopped a request.
type FailureKind int

const (
	// FailureAuthenticationRequired means no acceptable credentials were presented.
	FailureAuthenticationRequired FailureKind = iota
	// FailureForbidden means the caller is authenticated but not allowed.
	FailureForbidden
	// FailureRateLimited means the caller exceeded the endpoint's rate limit.
	FailureRateLimited
	// FailureUpstreamUnavailable means the session authority could not be
	// consulted. Rendered as a denial, never as a pass.
	FailureUpstreamUnavailable
	// FailurePipelineMisconfigured means no chain exists for the endpoint class.
	FailurePipelineMisconfigured
)

// Failure is a filter's decision to stop a request.
type Failure struct {
	Kind    FailureKind
	Code    string // machine-readable, e.g. SESSION_INACTIVE
	Message string
}

// NewFailure returns a Failure with the given kind, code, and message.
func NewFailure(kind FailureKind, code, message string) *Failure {
	return &Failure{Kind: kind, Code: code, Message: message}
}

// Status maps the failure to an HTTP status. Authority outages map to 401:
// the caller's credentials could not be confirmed, so the request is denied.
func (f *Failure) Status() int {
	switch f.Kind {
	case FailureForbidden:
		return http.StatusForbidden
	case FailureRateLimited:
		return http.StatusTooManyRequests
	case FailurePipelineMisconfigured:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// Outcome is the failure's label for metrics and logs.
func (f *Failure) Outcome() string {
	switch f.Kind {
	case FailureAuthenticationRequired:
		return "unauthenticated"
	case FailureForbidden:
		return "forbidden"
	case FailureRateLimited:
		return "rate_limited"
	case FailureUpstreamUnavailable:
		return "authority_unavailable"
	case FailurePipelineMisconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// failureBody is the JSON error envelope written to clients.
type failureBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteFailure renders the failure as a JSON error response.
func WriteFailure(w http.ResponseWriter, f *Failure, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status())
	_ = json.NewEncoder(w).Encode(failureBody{
		Error:     f.Message,
		Code:      f.Code,
		RequestID: requestID,
	})
}
