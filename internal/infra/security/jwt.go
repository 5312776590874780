package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
)

// MinSecretLength is the shortest HMAC secret accepted for signing session tokens.
const MinSecretLength = 32

var (
	// ErrSecretMissing is returned when no signing secret is configured.
	ErrSecretMissing = errors.New("jwt: signing secret is required")
	// ErrInvalidSessionToken covers malformed, tampered and wrongly signed tokens.
	ErrInvalidSessionToken = errors.New("jwt: invalid session token")
	// ErrExpiredSessionToken is returned for well-formed tokens past their expiry.
	ErrExpiredSessionToken = errors.New("jwt: session token expired")
)

// SessionClaims is the JWT body of a session token.
type SessionClaims struct {
	AccountID string `json:"id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// SessionTokenManager issues and verifies HS256 session tokens.
// Tokens are stateless; there is no server-side revocation.
type SessionTokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokenManager refuses to build a manager without a usable secret.
func NewSessionTokenManager(secret, issuer string, ttl time.Duration) (*SessionTokenManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretMissing
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt: secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt: session ttl must be positive")
	}

	return &SessionTokenManager{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock overrides the clock used to validate expiry.
func (m *SessionTokenManager) WithClock(now func() time.Time) *SessionTokenManager {
	if now != nil {
		m.now = now
	}
	return m
}

// TTL returns the lifetime of issued tokens.
func (m *SessionTokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for accountID valid from at until at+TTL.
func (m *SessionTokenManager) Issue(accountID, email string, at time.Time) (string, time.Time, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", time.Time{}, fmt.Errorf("jwt: account id is required")
	}
	if at.IsZero() {
		at = m.now()
	}
	at = at.UTC()
	expiresAt := at.Add(m.ttl)

	claims := SessionClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(at),
			NotBefore: jwt.NewNumericDate(at),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded identity.
func (m *SessionTokenManager) Verify(token string) (domain.SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.SessionClaims{}, ErrInvalidSessionToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaims{}, ErrExpiredSessionToken
		}
		return domain.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.AccountID) == "" {
		return domain.SessionClaims{}, ErrInvalidSessionToken
	}

	result := domain.SessionClaims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

var _ port.SessionTokens = (*SessionTokenManager)(nil)
