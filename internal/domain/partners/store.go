package partners

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/params"
)

type Store interface {
	Create(ctx context.Context, p *Partner) error
	SetReferenceCode(ctx context.Context, id int64, code string) error
	List(ctx context.Context, companyID int64, search string, pg *params.Pagination) ([]Partner, error)
	GetByID(ctx context.Context, id int64) (*Partner, error)
	Update(ctx context.Context, p *Partner) error
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
		return ErrDuplicateDocNumber
	}
	return err
}

func (r *Repository) Create(ctx context.Context, p *Partner) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO business_partners
			(company_id, reference_code, name, trade_name, document_type_id, document_number,
			 email, phone, address, is_client, is_supplier, is_active)
		VALUES ($1, '', $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
		RETURNING id, is_active, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.CompanyID, p.Name, p.TradeName, p.DocumentTypeID, p.DocumentNumber,
		p.Email, p.Phone, p.Address, p.IsClient, p.IsSupplier,
	).Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// SetReferenceCode backfills the opaque code once the row ID is known.
func (r *Repository) SetReferenceCode(ctx context.Context, id int64, code string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `UPDATE business_partners SET reference_code = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, code, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, companyID int64, search string, pg *params.Pagination) ([]Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, company_id, reference_code, name, trade_name, document_type_id, document_number,
		       email, phone, address, is_client, is_supplier, is_active,
		       created_at, updated_at, deleted_at,
		       COUNT(*) OVER() AS total
		FROM business_partners
		WHERE deleted_at IS NULL
		  AND company_id = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR document_number ILIKE '%' || $2 || '%' OR reference_code ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, companyID, search, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Partner
	total := 0
	for rows.Next() {
		var p Partner
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.ReferenceCode, &p.Name, &p.TradeName,
			&p.DocumentTypeID, &p.DocumentNumber, &p.Email, &p.Phone, &p.Address,
			&p.IsClient, &p.IsSupplier, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &total,
		); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pg.ComputeMeta(total)
	return list, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Partner{}
	query := `
		SELECT id, company_id, reference_code, name, trade_name, document_type_id, document_number,
		       email, phone, address, is_client, is_supplier, is_active,
		       created_at, updated_at, deleted_at
		FROM business_partners WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CompanyID, &p.ReferenceCode, &p.Name, &p.TradeName,
		&p.DocumentTypeID, &p.DocumentNumber, &p.Email, &p.Phone, &p.Address,
		&p.IsClient, &p.IsSupplier, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p *Partner) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE business_partners
		SET name = $1, trade_name = $2, document_type_id = $3, document_number = $4,
		    email = $5, phone = $6, address = $7, is_client = $8, is_supplier = $9,
		    is_active = $10, updated_at = NOW()
		WHERE id = $11
	`
	result, err := r.db.Exec(ctx, query,
		p.Name, p.TradeName, p.DocumentTypeID, p.DocumentNumber,
		p.Email, p.Phone, p.Address, p.IsClient, p.IsSupplier, p.IsActive, p.ID,
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

	query := `UPDATE business_partners SET is_active = false, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
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

	query := `UPDATE business_partners SET is_active = true, deleted_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
