package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	return token
}

func TestInspectToken(t *testing.T) {
	now := time.Now().UTC()
	token := signed(t, Claims{
		Email: "teacher@example.com",
		Role:  "teacher",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	claims, err := InspectToken(token)
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Role != "teacher" || claims.Email != "teacher@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Expired(now) {
		t.Fatalf("expected token to be valid now")
	}
	if !claims.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("expected token to be expired later")
	}
}

func TestInspectExpiredTokenStillDecodes(t *testing.T) {
	token := signed(t, Claims{
		Role: "student",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	claims, err := InspectToken(token)
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	if !claims.Expired(time.Now()) {
		t.Fatalf("expected expired claims")
	}
}

func TestInspectTokenRejectsGarbage(t *testing.T) {
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Fatalf("expected malformed token to error")
	}
	var claims *Claims
	if claims.Expired(time.Now()) || claims.UserID() != "" {
		t.Fatalf("nil claims should be inert")
	}
}
