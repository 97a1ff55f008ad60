package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	accountdomain "dinehub/backend/internal/account/domain"
	"dinehub/backend/internal/events"
	eventdomain "dinehub/backend/internal/events/domain"
	"dinehub/backend/internal/events/producer"
	"dinehub/backend/internal/security"
	sessiondomain "dinehub/backend/internal/session/domain"
)

// eventSource identifies this service in emitted event envelopes.
const eventSource = "authserver"

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	// ErrValidation wraps request validation failures; the message is safe
	// to return to clients.
	ErrValidation             = errors.New("invalid request")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrAccountNotFound        = errors.New("account not found")
)

// AuthResult holds the outcome of Register (account id only), Login, or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AccountID    string
	SessionID    string
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
	UpdateStatus(ctx context.Context, id string, status accountdomain.AccountStatus) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByAccount(ctx context.Context, accountID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
}

// AuthService implements password register, login, refresh, and logout, and
// emits an account event for every state change.
type AuthService struct {
	accounts   AccountRepo
	sessions   SessionRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	producer   producer.Producer
	log        *zap.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// producer may be nil; emits become no-ops.
func NewAuthService(
	accounts AccountRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	prod producer.Producer,
	log *zap.Logger,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		producer:   prod,
		log:        log,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates an account with the given email and password. Returns
// AuthResult with AccountID only; the caller must Login to get tokens.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Roles:        []string{accountdomain.RoleCustomer},
		Status:       accountdomain.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	s.emit(eventdomain.TypeAccountRegistered, account.ID, map[string]string{
		"email": account.Email,
		"name":  account.Name,
		"roles": accountdomain.JoinRoles(account.Roles),
	})
	return &AuthResult{AccountID: account.ID}, nil
}

// Login authenticates with email/password, starts a session, and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password, device, ipAddress string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Status != accountdomain.AccountStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, account.ID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, account.ID, account.Email, account.Roles)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               sessionID,
		AccountID:        account.ID,
		Email:            account.Email,
		Device:           strings.TrimSpace(device),
		IPAddress:        ipAddress,
		ExpiresAt:        now.Add(s.refreshTTL),
		RefreshJTI:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.emit(eventdomain.TypeAccountLoggedIn, account.ID, map[string]string{
		"sessionId": sessionID,
		"device":    sess.Device,
		"ip":        ipAddress,
	})
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		AccountID:    account.ID,
		SessionID:    sessionID,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// Presenting an already-rotated token is treated as theft: every session of
// the account is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, accountID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.Active(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJTI != jti {
		s.log.Warn("refresh token reuse detected",
			zap.String("session_id", sessionID), zap.String("account_id", accountID))
		_ = s.sessions.RevokeAllByAccount(ctx, accountID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Status != accountdomain.AccountStatusActive {
		return nil, ErrInvalidRefreshToken
	}

	newRefresh, newJTI, _, err := s.tokens.IssueRefresh(sessionID, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateRefreshToken(ctx, sessionID, newJTI, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, accountID, account.Email, account.Roles)
	if err != nil {
		return nil, err
	}
	s.emit(eventdomain.TypeTokenRefreshed, accountID, map[string]string{"sessionId": sessionID})
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		AccountID:    accountID,
		SessionID:    sessionID,
	}, nil
}

// Logout ends the session identified by the refresh token, or by sessionID
// when no refresh token is presented. Unknown tokens are a silent no-op so
// logout never leaks whether a token was valid.
func (s *AuthService) Logout(ctx context.Context, refreshToken, sessionID string) error {
	accountID := ""
	if refreshToken != "" {
		sid, _, aid, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		sessionID, accountID = sid, aid
	}
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.emit(eventdomain.TypeAccountLoggedOut, accountID, map[string]string{"sessionId": sessionID})
	return nil
}

// LogoutAll ends every live session of the account.
func (s *AuthService) LogoutAll(ctx context.Context, accountID string) error {
	if err := s.sessions.RevokeAllByAccount(ctx, accountID); err != nil {
		return err
	}
	s.emit(eventdomain.TypeAccountLoggedOut, accountID, map[string]string{"scope": "all"})
	return nil
}

// Delete marks the account deleted and ends all of its sessions. The profile
// projection is torn down by consumers of the emitted event.
func (s *AuthService) Delete(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if err := s.accounts.UpdateStatus(ctx, accountID, accountdomain.AccountStatusDeleted); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllByAccount(ctx, accountID); err != nil {
		return err
	}
	s.emit(eventdomain.TypeProfileDeleted, accountID, map[string]string{"email": account.Email})
	return nil
}

func (s *AuthService) emit(eventType, accountID string, payload map[string]string) {
	events.EmitAsync(s.producer, s.log, eventdomain.New(eventType, eventSource, accountID, payload))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 10 {
		return fmt.Errorf("%w: password must be at least 10 characters", ErrValidation)
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return fmt.Errorf("%w: password must contain letters and numbers", ErrValidation)
	}
	return nil
}
