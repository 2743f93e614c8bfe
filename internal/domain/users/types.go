package users

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/domain/rbac"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateEmail     = errors.New("a user with that email already exists")
	ErrDuplicateDocNumber = errors.New("a user with that document number already exists")
	QueryTimeoutDuration  = time.Second * 5
)

type User struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Phone             sql.NullString `json:"phone" swaggertype:"string"`
	DocumentTypeID    int64          `json:"document_type_id"`
	DocumentNumber    string         `json:"document_number"`
	Password          password       `json:"-"`
	ProfilePictureURL sql.NullString `json:"profile_picture_url" swaggertype:"string"`
	IsActive          bool           `json:"is_active"`
	Roles             []rbac.Role    `json:"roles,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         *time.Time     `json:"deleted_at,omitempty"`
}

// password keeps the bcrypt hash and, transiently, the plaintext it was
// set from. Neither ever serializes.
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// Hash exposes the stored hash for persistence.
func (p *password) Hash() []byte {
	return p.hash
}

// SetHash restores a hash loaded from the database.
func (p *password) SetHash(hash []byte) {
	p.hash = hash
}
