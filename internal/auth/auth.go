package auth

import "time"

// Authenticator signs and verifies the two token families. Access and
// refresh tokens use independent secrets and lifetimes.
type Authenticator interface {
	GenerateAccessToken(userID int64, email string, roles []RoleClaim) (string, error)
	GenerateRefreshToken(userID int64, jti string) (string, error)
	ValidateAccessToken(token string) (*AccessClaims, error)
	ValidateRefreshToken(token string) (*RefreshClaims, error)
	DecodeExpiry(token string) (time.Time, error)
}
