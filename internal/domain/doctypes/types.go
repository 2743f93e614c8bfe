package doctypes

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateName     = errors.New("a document type with that name already exists")
	QueryTimeoutDuration = time.Second * 5
)

// DocumentType is a catalog entry describing an identity document
// (name, expected digit count).
type DocumentType struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Digits      int        `json:"digits"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
