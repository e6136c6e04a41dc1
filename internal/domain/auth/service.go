package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	cryptoutil "hris/internal/platform/crypto"
)

const (
	defaultTokenTTL = 8 * time.Hour
	resetTokenTTL   = 2 * time.Hour
	mfaIssuer       = "HRIS"
)

type Service struct {
	store    StoreAPI
	Crypto   *cryptoutil.Service
	Secret   string
	TokenTTL time.Duration
	Perms    *Enforcer
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, secret string, tokenTTL time.Duration, perms *Enforcer) *Service {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &Service{store: store, Crypto: crypto, Secret: secret, TokenTTL: tokenTTL, Perms: perms}
}

// Login checks credentials. Users with 2FA get a short-lived challenge instead of a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		challenge, err := GenerateToken(s.Secret, Claims{
			UserID:   user.ID,
			TenantID: user.TenantID,
			RoleName: user.RoleName,
			Purpose:  PurposeMFAChallenge,
		}, mfaChallengeLifetime)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{MFARequired: true, ChallengeToken: challenge}, nil
	}
	return s.issue(ctx, user)
}

func (s *Service) VerifyMFA(ctx context.Context, challengeToken, code string) (LoginResult, error) {
	claims, err := ParseToken(s.Secret, challengeToken)
	if err != nil || claims.Purpose != PurposeMFAChallenge {
		return LoginResult{}, ErrInvalidToken
	}
	user, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidToken
		}
		return LoginResult{}, err
	}
	if user.Status != UserStatusActive || !user.MFAEnabled {
		return LoginResult{}, ErrInvalidToken
	}
	if err := s.checkCode(user.MFASecretEnc, code); err != nil {
		return LoginResult{}, err
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user AuthUser) (LoginResult, error) {
	sessionID, err := RandomToken()
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.CreateSession(ctx, user.ID, HashToken(sessionID), time.Now().Add(s.TokenTTL)); err != nil {
		return LoginResult{}, err
	}
	token, err := GenerateToken(s.Secret, Claims{
		UserID:     user.ID,
		TenantID:   user.TenantID,
		EmployeeID: user.EmployeeID,
		RoleName:   user.RoleName,
		SessionID:  sessionID,
	}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	session := user.Session()
	return LoginResult{Token: token, User: &session}, nil
}

func (s *Service) SessionActive(ctx context.Context, userID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.store.SessionValid(ctx, userID, HashToken(sessionID))
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

// Refresh rotates the session behind a still-valid access token.
func (s *Service) Refresh(ctx context.Context, rawToken string) (string, error) {
	claims, err := ParseAccessToken(s.Secret, rawToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	active, err := s.SessionActive(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		return "", err
	}
	if !active {
		return "", ErrSessionExpired
	}
	newSessionID, err := RandomToken()
	if err != nil {
		return "", err
	}
	if err := s.store.RotateSession(ctx, claims.UserID, HashToken(claims.SessionID), HashToken(newSessionID), time.Now().Add(s.TokenTTL)); err != nil {
		return "", err
	}
	next := *claims
	next.SessionID = newSessionID
	return GenerateToken(s.Secret, next, s.TokenTTL)
}

func (s *Service) Me(ctx context.Context, userID string) (Me, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return Me{}, err
	}
	out := Me{User: user.Session(), MFAEnabled: user.MFAEnabled, CanDelete: CanDelete(user.RoleName)}
	if s.Perms != nil {
		out.Permissions = s.Perms.Permissions(user.RoleName)
	}
	return out, nil
}

func (s *Service) SetupMFA(ctx context.Context, userID, accountName string) (MFASetup, error) {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	if accountName == "" {
		accountName = userID
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	encrypted, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, encrypted); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	return s.toggleMFA(ctx, userID, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	return s.toggleMFA(ctx, userID, code, false)
}

func (s *Service) toggleMFA(ctx context.Context, userID, code string, enabled bool) error {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return ErrMFAUnavailable
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkCode(user.MFASecretEnc, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}

func (s *Service) checkCode(secretEnc []byte, code string) error {
	if len(secretEnc) == 0 {
		return ErrMFANotConfigured
	}
	if s.Crypto == nil {
		return ErrMFAUnavailable
	}
	secret, err := s.Crypto.DecryptString(secretEnc)
	if err != nil || secret == "" {
		return ErrMFANotConfigured
	}
	if !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrMFAInvalid
	}
	return nil
}

// RequestReset creates a reset token when the address belongs to an active user.
// The boolean is false for unknown addresses so callers can answer uniformly.
func (s *Service) RequestReset(ctx context.Context, email string) (PasswordReset, bool, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PasswordReset{}, false, nil
		}
		return PasswordReset{}, false, err
	}
	token, err := RandomToken()
	if err != nil {
		return PasswordReset{}, false, err
	}
	expires := time.Now().Add(resetTokenTTL)
	if err := s.store.CreatePasswordReset(ctx, user.ID, HashToken(token), expires); err != nil {
		return PasswordReset{}, false, err
	}
	return PasswordReset{UserID: user.ID, Email: user.Email, Token: token, Expires: expires}, true, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	return s.store.ConsumePasswordReset(ctx, HashToken(token), hash)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.Password, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}
