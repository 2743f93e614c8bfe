package customers

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
	Create(ctx context.Context, c *Customer) error
	List(ctx context.Context, search string, p *params.Pagination) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
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

func (r *Repository) Create(ctx context.Context, c *Customer) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO customers (name, document_type_id, document_number, email, phone, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, is_active, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.Name, c.DocumentTypeID, c.DocumentNumber, c.Email, c.Phone, c.Address,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, search string, p *params.Pagination) ([]Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, name, document_type_id, document_number, email, phone, address, is_active,
		       created_at, updated_at, deleted_at,
		       COUNT(*) OVER() AS total
		FROM customers
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR document_number ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, search, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Customer
	total := 0
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.DocumentTypeID, &c.DocumentNumber,
			&c.Email, &c.Phone, &c.Address, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt, &total,
		); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.ComputeMeta(total)
	return list, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c := &Customer{}
	query := `
		SELECT id, name, document_type_id, document_number, email, phone, address, is_active,
		       created_at, updated_at, deleted_at
		FROM customers WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.DocumentTypeID, &c.DocumentNumber,
		&c.Email, &c.Phone, &c.Address, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, c *Customer) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE customers
		SET name = $1, document_type_id = $2, document_number = $3,
		    email = $4, phone = $5, address = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`
	result, err := r.db.Exec(ctx, query,
		c.Name, c.DocumentTypeID, c.DocumentNumber, c.Email, c.Phone, c.Address, c.IsActive, c.ID,
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

	query := `UPDATE customers SET is_active = false, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
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

	query := `UPDATE customers SET is_active = true, deleted_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
