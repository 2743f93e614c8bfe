package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PermissionClaim is the per-permission payload embedded in access tokens.
type PermissionClaim struct {
	Code string `json:"code"`
}

// RoleClaim mirrors a role and its permission codes at signing time.
// Gates never trust these claims for authorization; they reload the user.
type RoleClaim struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Permissions []PermissionClaim `json:"permissions"`
}

type AccessClaims struct {
	Email string      `json:"email"`
	Roles []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the numeric user id.
func (c *AccessClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

func (c *RefreshClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type JWTAuthenticator struct {
	secret        string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	iss           string
	aud           string
}

func NewJWTAuthenticator(secret, refreshSecret string, accessTTL, refreshTTL time.Duration, iss, aud string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:        secret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		iss:           iss,
		aud:           aud,
	}
}

// GenerateAccessToken signs a short-lived token carrying the user's roles
// and permission codes as informational claims.
func (a *JWTAuthenticator) GenerateAccessToken(userID int64, email string, roles []RoleClaim) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.iss,
			Audience:  jwt.ClaimStrings{a.aud},
		},
	}
	return a.signWithClaims(claims, a.secret)
}

// GenerateRefreshToken signs a long-lived token whose jti is the session
// shell id, so the ledger row can be found on presentation.
func (a *JWTAuthenticator) GenerateRefreshToken(userID int64, jti string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.iss,
		},
	}
	return a.signWithClaims(claims, a.refreshSecret)
}

func (a *JWTAuthenticator) signWithClaims(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (a *JWTAuthenticator) ValidateAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := a.parseInto(token, claims, a.secret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *JWTAuthenticator) ValidateRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := a.parseInto(token, claims, a.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *JWTAuthenticator) parseInto(token string, claims jwt.Claims, secret string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}

// DecodeExpiry reads exp from a token without verifying the signature.
// Only used right after self-signing, to persist the expiry on the session.
func (a *JWTAuthenticator) DecodeExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
