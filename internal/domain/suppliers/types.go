package suppliers

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateDocNumber = errors.New("a supplier with that document number already exists")
	ErrDuplicateEmail     = errors.New("a supplier with that email already exists")
	QueryTimeoutDuration  = time.Second * 5
)

type Supplier struct {
	ID             int64          `json:"id"`
	BusinessName   string         `json:"business_name"`
	TradeName      sql.NullString `json:"trade_name" swaggertype:"string"`
	DocumentTypeID int64          `json:"document_type_id"`
	DocumentNumber string         `json:"document_number"`
	Email          sql.NullString `json:"email" swaggertype:"string"`
	Phone          sql.NullString `json:"phone" swaggertype:"string"`
	Address        sql.NullString `json:"address" swaggertype:"string"`
	City           sql.NullString `json:"city" swaggertype:"string"`
	Country        sql.NullString `json:"country" swaggertype:"string"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}
