package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, err := iss.Issue("p1", "Lumine")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "p1" || claims.Name != "Lumine" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	tok, _ := iss.Issue("p1", "Lumine")

	if _, err := NewIssuer("other", time.Minute).Parse(tok); err != ErrInvalidToken {
		t.Fatalf("expected invalid_token for wrong secret, got %v", err)
	}
	if _, err := iss.Parse("garbage"); err != ErrInvalidToken {
		t.Fatalf("expected invalid_token for garbage, got %v", err)
	}
	if _, err := iss.Parse(""); err != ErrInvalidToken {
		t.Fatalf("expected invalid_token for empty, got %v", err)
	}

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := iss.Parse(tok); err != ErrInvalidToken {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/state?token=q", nil)
	if got := BearerToken(r); got != "q" {
		t.Fatalf("expected query token, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer abc")
	if got := BearerToken(r); got != "abc" {
		t.Fatalf("expected header token, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := BearerToken(r); got != "" {
		t.Fatalf("expected no token for basic auth, got %q", got)
	}
}
