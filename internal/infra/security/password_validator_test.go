package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/arklim/taskboard-auth/internal/core/domain"
)

func assertViolation(t *testing.T, err error, expectedCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error for %s", expectedCode)
	}
	var vErr *PasswordValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if vErr.Code != expectedCode {
		t.Fatalf("expected %s code, got %s", expectedCode, vErr.Code)
	}
}

func TestPasswordPolicyDefaults(t *testing.T) {
	policy := NewPasswordPolicy(PolicyConfigFor(AlgorithmBcrypt, 6, 0))

	if err := policy.Validate("secret1", domain.PasswordContext{}); err != nil {
		t.Fatalf("expected password to pass, got %v", err)
	}

	assertViolation(t, policy.Validate("abc12", domain.PasswordContext{}), "min_length")
	assertViolation(t, policy.Validate(strings.Repeat("x", 73), domain.PasswordContext{}), "max_length")
}

func TestPasswordPolicyCountsRunes(t *testing.T) {
	policy := NewPasswordPolicy(PolicyConfig{MinLength: 6})

	if err := policy.Validate("пароль", domain.PasswordContext{}); err != nil {
		t.Fatalf("six cyrillic letters must satisfy min length, got %v", err)
	}
}

func TestPasswordPolicyArgonHasNoByteCap(t *testing.T) {
	policy := NewPasswordPolicy(PolicyConfigFor(AlgorithmArgon2id, 6, 0))

	if err := policy.Validate(strings.Repeat("x", 200), domain.PasswordContext{}); err != nil {
		t.Fatalf("expected long password to pass with argon2id, got %v", err)
	}
}

func TestPasswordPolicyStrengthUsesContext(t *testing.T) {
	policy := NewPasswordPolicy(PolicyConfig{MinLength: 6, MinScore: 3})

	ctx := domain.PasswordContext{Username: "ada_lovelace1815", Email: "ada@example.com"}
	assertViolation(t, policy.Validate("ada_lovelace1815", ctx), "weak_password")

	if err := policy.Validate("C0mplex!Passphrase#2025", ctx); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}

func TestCustomPasswordValidator(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		MaxBytesRule(8),
	)

	assertViolation(t, validator.Validate("abc"), "min_length")
	assertViolation(t, validator.Validate("abcdefghi"), "max_length")

	if err := validator.Validate("abcd"); err != nil {
		t.Fatalf("expected password to pass custom validation, got %v", err)
	}
}

func TestNilValidator(t *testing.T) {
	var validator *PasswordValidator
	if err := validator.Validate("anything"); err == nil {
		t.Fatal("expected error from nil validator")
	}
}

func TestPasswordRuleMessagesAreSentences(t *testing.T) {
	policy := NewPasswordPolicy(PolicyConfig{MinLength: 6, MaxBytes: 8, MinScore: 4})

	for _, password := range []string{"abc", strings.Repeat("x", 9), "aaaaaa"} {
		var vErr *PasswordValidationError
		if !errors.As(policy.Validate(password, domain.PasswordContext{}), &vErr) {
			t.Fatalf("expected a violation for %q", password)
		}
		first := vErr.Message[:1]
		if first != strings.ToUpper(first) || !strings.HasSuffix(vErr.Message, ".") {
			t.Fatalf("message %q for %s must be a sentence", vErr.Message, vErr.Code)
		}
	}
}
