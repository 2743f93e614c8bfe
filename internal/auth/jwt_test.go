package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", 15*time.Minute, 21*24*time.Hour, "backoffice", "backoffice")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator()

	roles := []RoleClaim{{ID: 1, Name: "admin", Permissions: []PermissionClaim{{Code: "users.read"}}}}
	token, err := a.GenerateAccessToken(42, "admin@example.com", roles)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := a.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}

	userID, err := claims.UserID()
	if err != nil {
		t.Fatal(err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if len(claims.Roles) != 1 || claims.Roles[0].Name != "admin" {
		t.Errorf("roles = %+v", claims.Roles)
	}
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	a := newTestAuthenticator()

	jti := uuid.New().String()
	token, err := a.GenerateRefreshToken(42, jti)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := a.ValidateRefreshToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID != jti {
		t.Errorf("jti = %q, want %q", claims.ID, jti)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	a := newTestAuthenticator()

	access, err := a.GenerateAccessToken(42, "admin@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := a.GenerateRefreshToken(42, uuid.New().String())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.ValidateRefreshToken(access); err == nil {
		t.Error("access token validated as a refresh token")
	}
	if _, err := a.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token validated as an access token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	a := newTestAuthenticator()
	b := NewJWTAuthenticator("other-secret", "other-refresh-secret", 15*time.Minute, time.Hour, "backoffice", "backoffice")

	token, err := a.GenerateAccessToken(42, "admin@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ValidateAccessToken(token); err == nil {
		t.Error("token signed with a different secret validated")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", -time.Minute, -time.Minute, "backoffice", "backoffice")

	token, err := a.GenerateAccessToken(42, "admin@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTAuthenticator("access-secret", "refresh-secret", time.Minute, time.Minute, "backoffice", "backoffice").ValidateAccessToken(token); err == nil {
		t.Error("expired token validated")
	}
}

func TestDecodeExpiry(t *testing.T) {
	a := newTestAuthenticator()

	before := time.Now().Add(21 * 24 * time.Hour).Add(-time.Minute)
	token, err := a.GenerateRefreshToken(42, uuid.New().String())
	if err != nil {
		t.Fatal(err)
	}
	after := time.Now().Add(21 * 24 * time.Hour).Add(time.Minute)

	exp, err := a.DecodeExpiry(token)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Before(before) || exp.After(after) {
		t.Errorf("decoded expiry %v outside the expected window", exp)
	}

	if _, err := a.DecodeExpiry("not-a-jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
