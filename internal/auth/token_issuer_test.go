package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestIssuer(secret string, clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "confighub-users",
		Audience:      "confighub-api",
		TokenTTL:      30 * time.Minute,
		Clock:         clock,
	})
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := newTestIssuer("secret", nil)

	token, expiresIn, err := issuer.IssueToken(context.Background(), Identity{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry, got %d", expiresIn)
	}

	identity, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if identity.ID != "user-1" || identity.Username != "alice" {
		t.Fatalf("unexpected identity: %#v", identity)
	}
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	issuer := newTestIssuer("secret", nil)

	_, err := issuer.ValidateToken("   ")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected missing credential error, got %v", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer("secret", nil)
	forger := newTestIssuer("other-secret", nil)

	token, _, err := forger.IssueToken(context.Background(), Identity{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	_, err = issuer.ValidateToken(token)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential error, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)
	issuer := newTestIssuer("secret", func() time.Time { return issuedAt })

	token, _, err := issuer.IssueToken(context.Background(), Identity{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	later := newTestIssuer("secret", func() time.Time { return issuedAt.Add(31 * time.Minute) })
	if _, err := later.ValidateToken(token); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential error for expired token, got %v", err)
	}
}

func TestIssueRequiresIdentityFields(t *testing.T) {
	issuer := newTestIssuer("secret", nil)

	if _, _, err := issuer.IssueToken(context.Background(), Identity{Username: "alice"}); err == nil {
		t.Fatalf("expected error for missing subject")
	}
	if _, _, err := issuer.IssueToken(context.Background(), Identity{ID: "user-1"}); err == nil {
		t.Fatalf("expected error for missing username")
	}
}
