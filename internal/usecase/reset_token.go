package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/infra/security"
	"github.com/arklim/taskboard-auth/internal/repository"
)

const defaultResetTTL = time.Hour

// IssuedResetToken is the raw token handed to the mailer. Only its hash is stored.
type IssuedResetToken struct {
	AccountID string
	Token     string
	ExpiresAt time.Time
}

// ResetTokenManager issues and redeems single-use password reset tokens.
type ResetTokenManager struct {
	accounts port.AccountRepository
	hasher   port.PasswordHasher
	policy   port.PasswordPolicyValidator
	logger   *zap.Logger
	now      func() time.Time
	ttl      time.Duration
	generate func() (string, error)
}

// NewResetTokenManager constructs a ResetTokenManager with a one hour token lifetime.
func NewResetTokenManager(accounts port.AccountRepository, hasher port.PasswordHasher, policy port.PasswordPolicyValidator, logger *zap.Logger) *ResetTokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetTokenManager{
		accounts: accounts,
		hasher:   hasher,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
		ttl:      defaultResetTTL,
		generate: security.GenerateResetToken,
	}
}

// WithClock overrides the time source.
func (m *ResetTokenManager) WithClock(now func() time.Time) *ResetTokenManager {
	if now != nil {
		m.now = now
	}
	return m
}

// WithTTL overrides the token lifetime.
func (m *ResetTokenManager) WithTTL(ttl time.Duration) *ResetTokenManager {
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

// TTL returns the configured token lifetime.
func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue stores a fresh token for the account, replacing any earlier one, and returns the raw value.
func (m *ResetTokenManager) Issue(ctx context.Context, accountID string) (IssuedResetToken, error) {
	raw, err := m.generate()
	if err != nil {
		return IssuedResetToken{}, err
	}

	expiresAt := m.now().UTC().Add(m.ttl)
	if err := m.accounts.SetResetToken(ctx, accountID, security.HashToken(raw), expiresAt); err != nil {
		return IssuedResetToken{}, storeError("store reset token", err)
	}

	return IssuedResetToken{AccountID: accountID, Token: raw, ExpiresAt: expiresAt}, nil
}

// Consume sets newPassword on the account holding rawToken and clears the token.
// Unknown, expired and already used tokens yield ErrInvalidOrExpiredToken.
func (m *ResetTokenManager) Consume(ctx context.Context, rawToken, newPassword string) (string, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return "", ErrInvalidOrExpiredToken
	}

	tokenHash := security.HashToken(raw)
	now := m.now().UTC()

	account, err := m.accounts.FindByValidResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidOrExpiredToken
		}
		return "", storeError("lookup reset token", err)
	}

	if newPassword == "" {
		return "", newValidationError("password", MsgPasswordRequired)
	}
	if err := validatePassword(m.policy, newPassword, passwordContextFor(*account)); err != nil {
		return "", err
	}

	encoded, err := hashPassword(m.hasher, newPassword)
	if err != nil {
		return "", err
	}

	accountID, err := m.accounts.ConsumeResetToken(ctx, tokenHash, encoded, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race with a concurrent consume or the token expired in between.
			return "", ErrInvalidOrExpiredToken
		}
		return "", storeError("consume reset token", err)
	}

	return accountID, nil
}

func passwordContextFor(account domain.Account) domain.PasswordContext {
	return domain.PasswordContext{
		Username:  account.Username,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	}
}

func validatePassword(policy port.PasswordPolicyValidator, password string, pctx domain.PasswordContext) error {
	if policy == nil {
		return nil
	}
	if err := policy.Validate(password, pctx); err != nil {
		var violation *security.PasswordValidationError
		if errors.As(err, &violation) {
			return newValidationError("password", violation.Message)
		}
		return err
	}
	return nil
}

func hashPassword(hasher port.PasswordHasher, password string) (string, error) {
	encoded, err := hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", newValidationError("password", "Password is too long.")
		}
		return "", err
	}
	return encoded, nil
}
