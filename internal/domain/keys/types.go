package keys

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("no active key configured for that action")
	ErrInvalidCode       = errors.New("the provided authorization code is not valid")
	QueryTimeoutDuration = time.Second * 5
)

// OperationKey guards a destructive back-office action behind a short
// secret code. Only one key per action is active at a time; rotating
// deactivates the previous one.
type OperationKey struct {
	ID        int64      `json:"id"`
	Action    string     `json:"action"`
	CodeHash  []byte     `json:"-"`
	IsActive  bool       `json:"is_active"`
	OwnerID   int64      `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
}

func HashCode(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
}

func (k *OperationKey) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword(k.CodeHash, []byte(code)) == nil
}
