package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fastertools/ftl-gateway/internal/authz/core"
	ierrors "github.com/fastertools/ftl-gateway/internal/errors"
)

// staticVerifier builds a verifier over a static token map.
func staticVerifier(provider *core.StaticProvider) *Verifier {
	return NewVerifier(&core.ProviderConfig{Static: provider}, nil)
}

func TestVerifier_StaticValid(t *testing.T) {
	t.Parallel()

	verifier := staticVerifier(&core.StaticProvider{
		Tokens: map[string]core.StaticTokenInfo{
			"dev-token": {
				Sub:      "dev-user",
				ClientID: "dev-client",
				Scopes:   []string{"read"},
				AdditionalClaims: map[string]any{
					"email": "dev@example.com",
				},
			},
		},
	})

	info, err := verifier.Verify(context.Background(), "dev-token")
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}

	if info.Subject != "dev-user" {
		t.Errorf("Subject = %q, want %q", info.Subject, "dev-user")
	}
	if info.ClientID != "dev-client" {
		t.Errorf("ClientID = %q, want %q", info.ClientID, "dev-client")
	}
	if info.Issuer != "static" {
		t.Errorf("Issuer = %q, want %q", info.Issuer, "static")
	}
	if info.RawToken != "dev-token" {
		t.Error("RawToken not preserved")
	}
	if got := info.Claims["email"]; got != "dev@example.com" {
		t.Errorf("Claims[email] = %v, want dev@example.com", got)
	}
	if got := info.Claims["scope"]; got != "read" {
		t.Errorf("Claims[scope] = %v, want %q", got, "read")
	}
}

func TestVerifier_StaticNotFound(t *testing.T) {
	t.Parallel()

	verifier := staticVerifier(&core.StaticProvider{
		Tokens: map[string]core.StaticTokenInfo{},
	})

	_, err := verifier.Verify(context.Background(), "missing")
	if !errors.Is(err, ierrors.ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
	if !strings.Contains(err.Error(), "Token not found") {
		t.Errorf("Verify() error = %q, want not-found message", err.Error())
	}
}

func TestVerifier_StaticExpired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour).Unix()
	verifier := staticVerifier(&core.StaticProvider{
		Tokens: map[string]core.StaticTokenInfo{
			"old-token": {
				Sub:       "user",
				ClientID:  "client",
				Scopes:    []string{"read"},
				ExpiresAt: &past,
			},
		},
	})

	_, err := verifier.Verify(context.Background(), "old-token")
	if !errors.Is(err, ierrors.ErrExpiredToken) {
		t.Fatalf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

// Expiration is checked before scope policy for static tokens too.
func TestVerifier_StaticExpiredBeforeScopes(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute).Unix()
	verifier := staticVerifier(&core.StaticProvider{
		Tokens: map[string]core.StaticTokenInfo{
			"old-token": {
				Sub:       "user",
				ClientID:  "client",
				ExpiresAt: &past,
			},
		},
		RequiredScopes: []string{"admin"},
	})

	_, err := verifier.Verify(context.Background(), "old-token")
	if !errors.Is(err, ierrors.ErrExpiredToken) {
		t.Fatalf("Verify() error = %v, want ErrExpiredToken before scope check", err)
	}
}

func TestVerifier_StaticMissingScopes(t *testing.T) {
	t.Parallel()

	verifier := staticVerifier(&core.StaticProvider{
		Tokens: map[string]core.StaticTokenInfo{
			"dev-token": {
				Sub:      "user",
				ClientID: "client",
				Scopes:   []string{"read"},
			},
		},
		RequiredScopes: []string{"read", "write"},
	})

	_, err := verifier.Verify(context.Background(), "dev-token")
	if !errors.Is(err, ierrors.ErrUnauthorized) {
		t.Fatalf("Verify() error = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(err.Error(), "Token missing required scopes") {
		t.Errorf("Verify() error = %q, want missing-scopes message", err.Error())
	}
}
