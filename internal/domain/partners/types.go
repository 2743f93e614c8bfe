package partners

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateDocNumber = errors.New("a business partner with that document number already exists")
	QueryTimeoutDuration  = time.Second * 5
)

// Partner is a counterparty of a company. A single partner can act as
// a client, a supplier, or both.
type Partner struct {
	ID             int64          `json:"id"`
	CompanyID      int64          `json:"company_id"`
	ReferenceCode  string         `json:"reference_code"`
	Name           string         `json:"name"`
	TradeName      sql.NullString `json:"trade_name" swaggertype:"string"`
	DocumentTypeID int64          `json:"document_type_id"`
	DocumentNumber string         `json:"document_number"`
	Email          sql.NullString `json:"email" swaggertype:"string"`
	Phone          sql.NullString `json:"phone" swaggertype:"string"`
	Address        sql.NullString `json:"address" swaggertype:"string"`
	IsClient       bool           `json:"is_client"`
	IsSupplier     bool           `json:"is_supplier"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}
