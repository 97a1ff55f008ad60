package filters

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dinehub/backend/internal/security"
	"dinehub/backend/internal/session/authority"
)

// Headers controlling encrypted-token handling.
const (
	headerTokenEncrypted = "X-Token-Encrypted"
	headerKeyID          = "X-Key-ID"
)

// JWTFilter authenticates the request: it extracts the access token from the
// Authorization header or the auth cookie, optionally unwraps the encryption
// envelope, verifies the signature and claims, and asks the session authority
// whether the embedded session is still live. Only a confirmed live session
// yields a Principal; every other outcome, including an unreachable
// authority, denies the request.
type JWTFilter struct {
	tokens     *security.TokenProvider
	keyring    *security.Keyring
	authority  authority.Authority
	cookieName string
	log        *zap.Logger
}

// NewJWTFilter returns the authentication filter. keyring may be nil when
// token encryption is not deployed.
func NewJWTFilter(tokens *security.TokenProvider, keyring *security.Keyring, auth authority.Authority, cookieName string, log *zap.Logger) *JWTFilter {
	return &JWTFilter{
		tokens:     tokens,
		keyring:    keyring,
		authority:  auth,
		cookieName: cookieName,
		log:        log,
	}
}

func (f *JWTFilter) Name() string { return "jwt-auth" }

func (f *JWTFilter) Apply(ctx context.Context, r *http.Request) (context.Context, *Failure) {
	raw := f.extractToken(r)
	if raw == "" {
		return ctx, NewFailure(FailureAuthenticationRequired, "TOKEN_MISSING", "authentication required")
	}

	raw, failure := f.unwrap(r, raw)
	if failure != nil {
		return ctx, failure
	}

	identity, err := f.tokens.ValidateAccess(raw)
	if err != nil {
		code := "TOKEN_INVALID"
		if errors.Is(err, security.ErrTokenExpired) {
			code = "TOKEN_EXPIRED"
		}
		return ctx, NewFailure(FailureAuthenticationRequired, code, "invalid or expired token")
	}

	res := f.authority.Check(ctx, identity.SessionID)
	switch res.Status {
	case authority.StatusActive:
		// fall through
	case authority.StatusUnavailable:
		return ctx, NewFailure(FailureUpstreamUnavailable, res.Reason, "session could not be verified")
	default:
		return ctx, NewFailure(FailureAuthenticationRequired, res.Reason, "session is no longer valid")
	}

	if res.AccountID != "" && res.AccountID != identity.AccountID {
		f.log.Warn("token account does not match session",
			zap.String("session_id", identity.SessionID),
			zap.String("token_account", identity.AccountID),
			zap.String("session_account", res.AccountID))
		return ctx, NewFailure(FailureForbidden, "SESSION_ACCOUNT_MISMATCH", "token does not match session")
	}

	email := res.Email
	if email == "" {
		email = identity.Email
	}
	return WithPrincipal(ctx, &Principal{
		AccountID: identity.AccountID,
		SessionID: identity.SessionID,
		Email:     email,
		Roles:     identity.Roles,
	}), nil
}

// extractToken prefers the Authorization header over the auth cookie.
func (f *JWTFilter) extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if f.cookieName != "" {
		if c, err := r.Cookie(f.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

// unwrap removes the encryption envelope when the client flags the token as
// encrypted or the envelope prefix is present.
func (f *JWTFilter) unwrap(r *http.Request, raw string) (string, *Failure) {
	flag := r.Header.Get(headerTokenEncrypted)
	flagged := flag == "1" || strings.EqualFold(flag, "true")
	if !flagged && !security.IsEncrypted(raw) {
		return raw, nil
	}
	if f.keyring == nil {
		return "", NewFailure(FailureAuthenticationRequired, "TOKEN_DECRYPT_FAILED", "token encryption not supported")
	}
	cipher := f.keyring.Get(r.Header.Get(headerKeyID))
	if cipher == nil {
		return "", NewFailure(FailureAuthenticationRequired, "UNKNOWN_KEY_ID", "unknown encryption key")
	}
	plain, err := cipher.Decrypt(raw)
	if err != nil {
		return "", NewFailure(FailureAuthenticationRequired, "TOKEN_DECRYPT_FAILED", "token could not be decrypted")
	}
	return plain, nil
}
