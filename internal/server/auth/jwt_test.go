package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/amaravathi/tradeidentity/internal/common"
)

func newService(t *testing.T, secret, issuer string, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, issuer, ttl)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	return s
}

func TestNewTokenService_Validation(t *testing.T) {
	if _, err := NewTokenService("", "iss", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService("k", "", time.Minute); err == nil {
		t.Fatal("expected error for empty issuer")
	}
	if _, err := NewTokenService("k", "iss", 0); err == nil {
		t.Fatal("expected error for non-positive TTL")
	}
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := newService(t, "super-secret", "trade-identity", time.Hour)

	tok, err := s.Issue(42, []string{"USER", "ADMIN"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}

	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID error: %v", err)
	}
	if id != 42 {
		t.Fatalf("subject mismatch: got %d want 42", id)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "USER" || claims.Roles[1] != "ADMIN" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := newService(t, "secret", "trade-identity", time.Minute)
	tok, err := s.Issue(1, nil)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// move the verifier's clock past expiry
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := s.Verify(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuing := newService(t, "right-secret", "trade-identity", time.Hour)
	verifying := newService(t, "wrong-secret", "trade-identity", time.Hour)

	tok, err := issuing.Issue(7, []string{"USER"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := verifying.Verify(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bad signature, got %v", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	issuing := newService(t, "secret", "someone-else", time.Hour)
	verifying := newService(t, "secret", "trade-identity", time.Hour)

	tok, err := issuing.Issue(7, nil)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := verifying.Verify(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for issuer mismatch, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	s := newService(t, "secret", "trade-identity", time.Hour)
	if _, err := s.Verify("not.a.jwt"); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}

func TestClaims_UserID_BadSubject(t *testing.T) {
	t.Parallel()

	c := &Claims{}
	c.Subject = "not-a-number"
	if _, err := c.UserID(); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	c.Subject = "-5"
	if _, err := c.UserID(); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for non-positive id, got %v", err)
	}
}
