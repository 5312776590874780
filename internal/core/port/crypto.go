package port

import (
	"time"

	"github.com/arklim/taskboard-auth/internal/core/domain"
)

// PasswordPolicyValidator enforces password strength requirements.
type PasswordPolicyValidator interface {
	Validate(password string, ctx domain.PasswordContext) error
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// SessionTokens issues and verifies signed, time-limited session tokens.
type SessionTokens interface {
	Issue(accountID string, email string, at time.Time) (token string, expiresAt time.Time, err error)
	Verify(token string) (domain.SessionClaims, error)
}
