package security

import (
	"fmt"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
)

const (
	defaultMinPasswordLength = 6
	bcryptMaxPasswordBytes   = 72
)

// PolicyConfig configures the password policy.
type PolicyConfig struct {
	MinLength int
	// MaxBytes of zero disables the upper bound.
	MaxBytes int
	// MinScore is the minimum zxcvbn score (0-4); zero disables the strength check.
	MinScore int
}

// PolicyConfigFor returns the policy bounds matching the hash algorithm.
func PolicyConfigFor(algorithm string, minLength, minScore int) PolicyConfig {
	cfg := PolicyConfig{MinLength: minLength, MinScore: minScore}
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinPasswordLength
	}
	if algorithm != AlgorithmArgon2id {
		cfg.MaxBytes = bcryptMaxPasswordBytes
	}
	return cfg
}

// PasswordPolicy adapts the password validator to the domain-level policy interface.
type PasswordPolicy struct {
	cfg PolicyConfig
}

// NewPasswordPolicy builds a policy that accounts for contextual user inputs when validating passwords.
func NewPasswordPolicy(cfg PolicyConfig) *PasswordPolicy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinPasswordLength
	}
	return &PasswordPolicy{cfg: cfg}
}

// Validate applies the configured rules to ensure the password meets policy requirements.
func (p *PasswordPolicy) Validate(password string, ctx domain.PasswordContext) error {
	if p == nil {
		return fmt.Errorf("password policy not configured")
	}

	validator := NewPasswordValidator(
		MinLengthRule(p.cfg.MinLength),
		MaxBytesRule(p.cfg.MaxBytes),
		RequirePasswordStrengthRule(p.cfg.MinScore, ctx.Inputs()...),
	)
	return validator.Validate(password)
}

var _ port.PasswordPolicyValidator = (*PasswordPolicy)(nil)
