package idtoken

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return raw
}

func TestParseGoogleStyleToken(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":         "uid-123",
		"email":       "maria@iglesia.app",
		"name":        "Maria Lopez",
		"given_name":  "Maria",
		"family_name": "Lopez",
	})

	claims, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "uid-123" || claims.Email != "maria@iglesia.app" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.GivenName != "Maria" || claims.FamilyName != "Lopez" {
		t.Fatalf("unexpected name claims: %+v", claims)
	}
}

func TestParseAppleStyleToken(t *testing.T) {
	// Apple tokens carry sub and email but no name claims.
	raw := signToken(t, jwt.MapClaims{
		"sub":   "uid-apple",
		"email": "jose@iglesia.app",
	})

	claims, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Email != "jose@iglesia.app" {
		t.Fatalf("unexpected email: %q", claims.Email)
	}
	if claims.Name != "" || claims.GivenName != "" || claims.FamilyName != "" {
		t.Fatalf("missing claims must be empty, got %+v", claims)
	}
}

func TestParseIgnoresNonStringClaims(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":   12345,
		"email": "ana@iglesia.app",
	})

	claims, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "" {
		t.Fatalf("non-string sub must be empty, got %q", claims.Subject)
	}
	if claims.Email != "ana@iglesia.app" {
		t.Fatalf("unexpected email: %q", claims.Email)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b", "not.a.jwt"} {
		_, err := Parse(raw)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}
