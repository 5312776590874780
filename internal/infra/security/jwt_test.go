package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionTokenRoundTrip(t *testing.T) {
	issued := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	mgr, err := NewSessionTokenManager(testSecret, "taskboard-auth", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionTokenManager: %v", err)
	}
	mgr.WithClock(func() time.Time { return issued.Add(30 * time.Minute) })

	token, expiresAt, err := mgr.Issue("acc-1", "ab1@x.com", issued)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(issued.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", expiresAt)
	}

	claims, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.Email != "ab1@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected expiry %s, got %s", expiresAt, claims.ExpiresAt)
	}
}

func TestSessionTokenExpires(t *testing.T) {
	issued := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	mgr, err := NewSessionTokenManager(testSecret, "taskboard-auth", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionTokenManager: %v", err)
	}

	token, _, err := mgr.Issue("acc-1", "ab1@x.com", issued)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mgr.WithClock(func() time.Time { return issued.Add(time.Hour + time.Second) })
	if _, err := mgr.Verify(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected ErrExpiredSessionToken, got %v", err)
	}
}

func TestSessionTokenRejectsForeignSignature(t *testing.T) {
	issued := time.Now().UTC()
	mgr, _ := NewSessionTokenManager(testSecret, "taskboard-auth", time.Hour)
	other, _ := NewSessionTokenManager(strings.Repeat("z", 32), "taskboard-auth", time.Hour)

	token, _, err := other.Issue("acc-1", "ab1@x.com", issued)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := mgr.Verify(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

func TestSessionTokenRejectsNoneAlgorithm(t *testing.T) {
	mgr, _ := NewSessionTokenManager(testSecret, "", time.Hour)

	claims := SessionClaims{
		AccountID: "acc-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := mgr.Verify(unsigned); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

func TestSessionTokenRejectsGarbage(t *testing.T) {
	mgr, _ := NewSessionTokenManager(testSecret, "", time.Hour)

	for _, token := range []string{"", "   ", "not.a.jwt"} {
		if _, err := mgr.Verify(token); !errors.Is(err, ErrInvalidSessionToken) {
			t.Fatalf("expected ErrInvalidSessionToken for %q, got %v", token, err)
		}
	}
}

func TestNewSessionTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewSessionTokenManager("", "x", time.Hour); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
	if _, err := NewSessionTokenManager("short", "x", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewSessionTokenManager(testSecret, "x", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
