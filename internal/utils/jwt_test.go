package utils

import (
	"strings"
	"testing"
	"time"
)

func TestAccessTokenLifecycle(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "user@example.com", "user", 15)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if !tok.Exp.After(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := ParseAccessToken("test-secret", tok.Token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("expected email user@example.com, got %s", claims.Email)
	}
	if claims.Role != "user" {
		t.Fatalf("expected role user, got %s", claims.Role)
	}
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 1, "a@x.com", "user", 15)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	if _, err := ParseAccessToken("secret-b", tok.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestAccessTokenTamperedPayloadRejected(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "a@x.com", "user", 15)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	parts := strings.Split(tok.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	// swap the payload for repeated 'A's; the signature no longer matches
	tampered := parts[0] + "." + strings.Repeat("A", len(parts[1])) + "." + parts[2]
	if _, err := ParseAccessToken("secret", tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestAccessTokenExpiredRejected(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "a@x.com", "user", -1)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}
	if _, err := ParseAccessToken("secret", tok.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRefreshTokenGeneration(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Raw == b.Raw {
		t.Fatal("expected distinct refresh tokens")
	}
	if len(a.Raw) != 96 {
		t.Fatalf("expected 96 hex chars, got %d", len(a.Raw))
	}
	if !a.Exp.After(time.Now().Add(6 * 24 * time.Hour)) {
		t.Fatal("expected roughly 7 day expiry")
	}
	if HashRefreshRaw(a.Raw) == a.Raw {
		t.Fatal("expected hash to differ from raw token")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatal("expected hash to be deterministic")
	}
}

func TestRandomCodeFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := RandomCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}
