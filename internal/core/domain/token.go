package domain

import "time"

// ResetState enumerates the password reset lifecycle of an account.
type ResetState string

const (
	ResetStateNone   ResetState = "no_active_reset"
	ResetStateIssued ResetState = "reset_issued"
)

// ResetToken is a single-use password reset artifact. Only the hash is persisted.
type ResetToken struct {
	AccountID string
	TokenHash string
	ExpiresAt time.Time
}

// IsExpired reports whether the reset token can no longer be redeemed.
func (t ResetToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// SessionClaims is the identity proven by a verified session token.
type SessionClaims struct {
	AccountID string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has elapsed its validity window.
func (c SessionClaims) IsExpired(at time.Time) bool {
	return !c.ExpiresAt.After(at)
}

// PasswordResetMessage is handed to the notifier to deliver a reset link.
type PasswordResetMessage struct {
	To        string
	FirstName string
	ResetURL  string
	ExpiresAt time.Time
	// ValidFor is the lifetime the link was issued with.
	ValidFor time.Duration
}
