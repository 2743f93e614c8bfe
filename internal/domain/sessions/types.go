package sessions

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

// Metadata is the request context captured when a shell is created.
type Metadata struct {
	UserAgent string
	IP        string
}

// Session is one refresh-token lineage node. A row starts life as a shell
// (empty hash, zero expiry) so its id can become the token's jti before the
// token is signed; AttachToken fills in hash and expiry afterwards. Rows are
// never deleted. Revoked and rotated sessions stay behind as the replay
// detection trail, linked backwards through RotatedFrom.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	UserID      int64      `json:"user_id"`
	TokenHash   []byte     `json:"-"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	RotatedAt   *time.Time `json:"rotated_at,omitempty"`
	RotatedFrom *uuid.UUID `json:"rotated_from,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	IP          string     `json:"ip,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// HashToken derives the stored hash for a refresh token: bcrypt over the
// token's SHA-256 digest. The pre-hash keeps the input under bcrypt's
// 72-byte cap (signed JWTs are far longer) while keeping the salted,
// deliberately slow comparison.
func HashToken(raw string) ([]byte, error) {
	digest := sha256.Sum256([]byte(raw))
	return bcrypt.GenerateFromPassword(digest[:], bcrypt.DefaultCost)
}

// Matches verifies a presented raw token against the stored hash. A shell
// that was never attached has an empty hash and can never match.
func (s *Session) Matches(raw string) bool {
	if len(s.TokenHash) == 0 {
		return false
	}
	digest := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword(s.TokenHash, digest[:]) == nil
}
