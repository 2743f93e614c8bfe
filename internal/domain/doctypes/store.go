package doctypes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, dt *DocumentType) error
	List(ctx context.Context) ([]DocumentType, error)
	GetByID(ctx context.Context, id int64) (*DocumentType, error)
	GetByName(ctx context.Context, name string) (*DocumentType, error)
	Update(ctx context.Context, dt *DocumentType) error
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, dt *DocumentType) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO document_types (name, digits, description, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, is_active, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, dt.Name, dt.Digits, dt.Description).
		Scan(&dt.ID, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]DocumentType, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, name, digits, description, is_active, created_at, updated_at, deleted_at
		FROM document_types
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []DocumentType
	for rows.Next() {
		var dt DocumentType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.Digits, &dt.Description, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt, &dt.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, dt)
	}
	return list, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*DocumentType, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	dt := &DocumentType{}
	query := `
		SELECT id, name, digits, description, is_active, created_at, updated_at, deleted_at
		FROM document_types WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&dt.ID, &dt.Name, &dt.Digits, &dt.Description, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt, &dt.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dt, nil
}

func (r *Repository) GetByName(ctx context.Context, name string) (*DocumentType, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	dt := &DocumentType{}
	query := `
		SELECT id, name, digits, description, is_active, created_at, updated_at, deleted_at
		FROM document_types WHERE name = $1 AND deleted_at IS NULL
	`
	err := r.db.QueryRow(ctx, query, name).
		Scan(&dt.ID, &dt.Name, &dt.Digits, &dt.Description, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt, &dt.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dt, nil
}

func (r *Repository) Update(ctx context.Context, dt *DocumentType) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE document_types
		SET name = $1, digits = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query, dt.Name, dt.Digits, dt.Description, dt.IsActive, dt.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE document_types SET is_active = false, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
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

	query := `UPDATE document_types SET is_active = true, deleted_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
