package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/params"
)

type Store interface {
	Create(ctx context.Context, s *Supplier) error
	List(ctx context.Context, search string, p *params.Pagination) ([]Supplier, error)
	GetByID(ctx context.Context, id int64) (*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "docnum"):
			return ErrDuplicateDocNumber
		}
	}
	return err
}

func (r *Repository) Create(ctx context.Context, s *Supplier) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO suppliers (business_name, trade_name, document_type_id, document_number, email, phone, address, city, country, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		RETURNING id, is_active, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		s.BusinessName, s.TradeName, s.DocumentTypeID, s.DocumentNumber,
		s.Email, s.Phone, s.Address, s.City, s.Country,
	).Scan(&s.ID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, search string, p *params.Pagination) ([]Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, business_name, trade_name, document_type_id, document_number,
		       email, phone, address, city, country, is_active,
		       created_at, updated_at, deleted_at,
		       COUNT(*) OVER() AS total
		FROM suppliers
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR business_name ILIKE '%' || $1 || '%' OR document_number ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, search, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Supplier
	total := 0
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(
			&s.ID, &s.BusinessName, &s.TradeName, &s.DocumentTypeID, &s.DocumentNumber,
			&s.Email, &s.Phone, &s.Address, &s.City, &s.Country, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt, &total,
		); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.ComputeMeta(total)
	return list, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	s := &Supplier{}
	query := `
		SELECT id, business_name, trade_name, document_type_id, document_number,
		       email, phone, address, city, country, is_active, created_at, updated_at, deleted_at
		FROM suppliers WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.BusinessName, &s.TradeName, &s.DocumentTypeID, &s.DocumentNumber,
		&s.Email, &s.Phone, &s.Address, &s.City, &s.Country, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *Repository) Update(ctx context.Context, s *Supplier) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE suppliers
		SET business_name = $1, trade_name = $2, document_type_id = $3, document_number = $4,
		    email = $5, phone = $6, address = $7, city = $8, country = $9, is_active = $10,
		    updated_at = NOW()
		WHERE id = $11
	`
	result, err := r.db.Exec(ctx, query,
		s.BusinessName, s.TradeName, s.DocumentTypeID, s.DocumentNumber,
		s.Email, s.Phone, s.Address, s.City, s.Country, s.IsActive, s.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE suppliers SET is_active = false, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Restore(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE suppliers SET is_active = true, deleted_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
