package auth

import (
	"strings"
	"testing"
	"time"
)

func testSigner(t *testing.T, ttl time.Duration) *Signer {
	t.Helper()
	s, err := NewSigner(SignerConfig{
		Secret: []byte("test-secret-test-secret-test-secret"),
		Issuer: "opsboard-test",
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func testUser() *User {
	return &User{
		ID:             "user-1",
		OrganizationID: "org-1",
		Username:       "alice",
		Role:           "manager",
		Status:         UserStatusActive,
	}
}

func TestSignerRoundTrip(t *testing.T) {
	s := testSigner(t, 15*time.Minute)

	token, exp, err := s.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Username != "alice" || claims.Role != "manager" {
		t.Fatalf("identity claims not preserved: %+v", claims)
	}
	if claims.OrganizationID != "org-1" {
		t.Fatalf("org claim not preserved: %s", claims.OrganizationID)
	}
	if claims.Issuer != "opsboard-test" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti claim")
	}
}

func TestSignerRejectsForeignKey(t *testing.T) {
	s := testSigner(t, 15*time.Minute)
	token, _, err := s.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other, err := NewSigner(SignerConfig{Secret: []byte("a completely different secret"), Issuer: "opsboard-test"})
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignerRejectsGarbage(t *testing.T) {
	s := testSigner(t, 15*time.Minute)
	for _, token := range []string{"", "   ", "not-a-jwt", "a.b", "a.b.c"} {
		if _, err := s.Verify(token); err != ErrInvalidToken {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestSignerExpiryBoundary(t *testing.T) {
	s := testSigner(t, 15*time.Minute)

	minted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := minted
	s.withClock(func() time.Time { return now })

	token, exp, err := s.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !exp.Equal(minted.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", exp)
	}

	now = minted.Add(14 * time.Minute)
	if _, err := s.Verify(token); err != nil {
		t.Fatalf("token must validate one minute before expiry: %v", err)
	}

	// Expiry is exclusive: the token dies at the exact expiry instant.
	now = minted.Add(15 * time.Minute)
	if _, err := s.Verify(token); err != ErrInvalidToken {
		t.Fatalf("token must be rejected at expiry, got %v", err)
	}

	now = minted.Add(16 * time.Minute)
	if _, err := s.Verify(token); err != ErrInvalidToken {
		t.Fatalf("token must be rejected after expiry, got %v", err)
	}
}

func TestSignerTamperedPayloadRejected(t *testing.T) {
	s := testSigner(t, 15*time.Minute)
	token, _, err := s.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := s.Verify(tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
