package security

import (
	"errors"
	"strings"
	"testing"
)

func newTestBcryptHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(HasherConfig{Algorithm: AlgorithmBcrypt, BcryptCost: MinBcryptCost})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	return h
}

func newTestArgonHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(HasherConfig{
		Algorithm: AlgorithmArgon2id,
		Argon2: Argon2Config{
			Memory:      8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	return h
}

func TestBcryptHashAndVerify(t *testing.T) {
	h := newTestBcryptHasher(t)

	encoded, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$2a$10$") {
		t.Fatalf("unexpected bcrypt encoding: %q", encoded)
	}
	if strings.Contains(encoded, "secret1") {
		t.Fatal("hash must not contain the plaintext")
	}

	ok, err := h.Verify("secret1", encoded)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestBcryptHashesAreSalted(t *testing.T) {
	h := newTestBcryptHasher(t)

	first, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	h := newTestBcryptHasher(t)

	_, err := h.Hash(strings.Repeat("a", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := newTestArgonHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != argon2Variant || parts[1] != argon2Version {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("Tr0ub4dor&3", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestVerifyAcceptsEitherEncoding(t *testing.T) {
	bcryptHasher := newTestBcryptHasher(t)
	argonHasher := newTestArgonHasher(t)

	legacy, err := argonHasher.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := bcryptHasher.Verify("secret1", legacy)
	if err != nil || !ok {
		t.Fatalf("bcrypt hasher must verify argon2id hashes, ok=%v err=%v", ok, err)
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	h := newTestBcryptHasher(t)

	if _, err := h.Verify("password", "invalid-format"); err == nil {
		t.Fatal("Verify expected to return error for invalid format")
	}
	if _, err := h.Verify("password", "argon2id$v=19$m=1,t=1$bad"); err == nil {
		t.Fatal("Verify expected to return error for malformed argon2 hash")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	h := newTestBcryptHasher(t)

	ok, err := h.Verify("", "")
	if err != nil || ok {
		t.Fatalf("expected false without error for empty inputs, ok=%v err=%v", ok, err)
	}
}

func TestNewPasswordHasherValidation(t *testing.T) {
	if _, err := NewPasswordHasher(HasherConfig{Algorithm: AlgorithmBcrypt, BcryptCost: 4}); err == nil {
		t.Fatal("expected error for bcrypt cost below minimum")
	}
	if _, err := NewPasswordHasher(HasherConfig{Algorithm: "md5"}); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
	if _, err := NewPasswordHasher(HasherConfig{Algorithm: AlgorithmArgon2id, Argon2: Argon2Config{Memory: 1}}); err == nil {
		t.Fatal("expected error for invalid argon2 parameters")
	}

	h, err := NewPasswordHasher(HasherConfig{})
	if err != nil {
		t.Fatalf("expected defaults to be valid: %v", err)
	}
	if h.Algorithm() != AlgorithmBcrypt {
		t.Fatalf("expected bcrypt default, got %s", h.Algorithm())
	}
}
