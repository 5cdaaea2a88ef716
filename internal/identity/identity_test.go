package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestPeekReadsClaims(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"sub":   "1234",
		"iss":   "https://accounts.example.com",
		"email": "ops@example.com",
		"exp":   expires.Unix(),
	})

	claims, ok := Peek(token)
	if !ok {
		t.Fatal("expected token claims")
	}
	if claims.Email != "ops@example.com" || claims.Subject != "1234" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %s, got %s", expires, claims.ExpiresAt)
	}
	if claims.Label() != "ops@example.com" {
		t.Fatalf("unexpected label %s", claims.Label())
	}
	if claims.Expired(time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("expected token to be valid before expiry")
	}
	if !claims.Expired(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("expected token to be expired after expiry")
	}
}

func TestPeekRejectsOpaqueValues(t *testing.T) {
	for _, value := range []string{"", "passkey", "a.b", "not a.jwt.token", "x.y.z"} {
		if _, ok := Peek(value); ok {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
	if !LooksLikeToken("x.y.z") {
		t.Fatal("expected three segments to look like a token")
	}
}

func TestLabelFallback(t *testing.T) {
	if got := (Claims{}).Label(); got != "operator" {
		t.Fatalf("expected operator fallback, got %s", got)
	}
	if got := (Claims{Subject: "s-1"}).Label(); got != "s-1" {
		t.Fatalf("expected subject fallback, got %s", got)
	}
}
