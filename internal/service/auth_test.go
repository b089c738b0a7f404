package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sprocketdb/sprocket/internal/config"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService("test-secret-key-for-jwt")
}

func TestJWTRoundTrip(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	// Issue a token
	token, err := auth.IssueJWT(ctx, "ops@example.com", 1*time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	// Validate the token
	principal, err := auth.ValidateJWT(ctx, token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if principal.Subject != "ops@example.com" {
		t.Errorf("Subject: got %q, want %q", principal.Subject, "ops@example.com")
	}
}

func TestJWTExpired(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	// Issue a token with negative TTL (already expired)
	token, err := auth.IssueJWT(ctx, "test", -1*time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	if _, err := auth.ValidateJWT(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTInvalidToken(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	if _, err := auth.ValidateJWT(ctx, "garbage.token.here"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	ctx := context.Background()
	token, err := NewAuthService("secret-a").IssueJWT(ctx, "test", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	if _, err := NewAuthService("secret-b").ValidateJWT(ctx, token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestLoadOrInitSecret(t *testing.T) {
	ctx := context.Background()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	first, err := LoadOrInitSecret(ctx, store)
	if err != nil {
		t.Fatalf("LoadOrInitSecret: %v", err)
	}
	if first == "" {
		t.Fatal("expected generated secret")
	}

	second, err := LoadOrInitSecret(ctx, store)
	if err != nil {
		t.Fatalf("LoadOrInitSecret: %v", err)
	}
	if second != first {
		t.Errorf("secret not stable across loads: %q vs %q", first, second)
	}
}
