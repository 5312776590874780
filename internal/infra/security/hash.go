package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/arklim/taskboard-auth/internal/core/port"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	// MinBcryptCost is the lowest work factor accepted for new hashes.
	MinBcryptCost = 10
)

// ErrPasswordTooLong is returned when the password exceeds what the algorithm accepts.
// Passwords are never truncated.
var ErrPasswordTooLong = errors.New("password: exceeds maximum length")

var errUnknownHashFormat = errors.New("password: unrecognized hash format")

// HasherConfig selects the algorithm used for new hashes.
type HasherConfig struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Config
}

// PasswordHasher hashes with the configured algorithm and verifies any supported encoding,
// so stored hashes remain valid after the algorithm is switched.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	argon2     Argon2Config
}

// NewPasswordHasher validates cfg and returns a hasher.
func NewPasswordHasher(cfg HasherConfig) (*PasswordHasher, error) {
	algorithm := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	if algorithm == "" {
		algorithm = AlgorithmBcrypt
	}

	h := &PasswordHasher{algorithm: algorithm, bcryptCost: cfg.BcryptCost, argon2: cfg.Argon2}

	switch algorithm {
	case AlgorithmBcrypt:
		if h.bcryptCost == 0 {
			h.bcryptCost = 12
		}
		if h.bcryptCost < MinBcryptCost || h.bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt: cost %d outside [%d, %d]", h.bcryptCost, MinBcryptCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		if h.argon2 == (Argon2Config{}) {
			h.argon2 = DefaultArgon2Config()
		}
		if err := validateArgon2Config(h.argon2); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", cfg.Algorithm)
	}

	return h, nil
}

// Algorithm returns the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string {
	return h.algorithm
}

// Hash derives a salted hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2(password, h.argon2)
	}

	sum, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: hash password: %w", err)
	}
	return string(sum), nil
}

// Verify compares password against encoded using the algorithm's own constant-time check.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	if strings.HasPrefix(encoded, argon2Variant+"$") {
		return verifyArgon2(password, encoded)
	}

	if !isBcryptHash(encoded) {
		return false, errUnknownHashFormat
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: verify password: %w", err)
	}
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

var _ port.PasswordHasher = (*PasswordHasher)(nil)
