package keys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/database"
)

type Store interface {
	CreateOrRotate(ctx context.Context, k *OperationKey) error
	FindActive(ctx context.Context, action string) (*OperationKey, error)
	Validate(ctx context.Context, action, code string) error
	ListActive(ctx context.Context) ([]OperationKey, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// CreateOrRotate deactivates any existing active key for the action and
// inserts the new one in the same transaction.
func (r *Repository) CreateOrRotate(ctx context.Context, k *OperationKey) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		deactivate := `
			UPDATE operation_keys
			SET is_active = false, rotated_at = NOW(), updated_at = NOW()
			WHERE action = $1 AND is_active = true
		`
		if _, err := tx.Exec(ctx, deactivate, k.Action); err != nil {
			return err
		}

		insert := `
			INSERT INTO operation_keys (action, code_hash, is_active, owner_id)
			VALUES ($1, $2, true, $3)
			RETURNING id, is_active, created_at, updated_at
		`
		return tx.QueryRow(ctx, insert, k.Action, k.CodeHash, k.OwnerID).
			Scan(&k.ID, &k.IsActive, &k.CreatedAt, &k.UpdatedAt)
	})
}

func (r *Repository) FindActive(ctx context.Context, action string) (*OperationKey, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	k := &OperationKey{}
	query := `
		SELECT id, action, code_hash, is_active, owner_id, created_at, updated_at, rotated_at
		FROM operation_keys
		WHERE action = $1 AND is_active = true
	`
	err := r.db.QueryRow(ctx, query, action).Scan(
		&k.ID, &k.Action, &k.CodeHash, &k.IsActive, &k.OwnerID,
		&k.CreatedAt, &k.UpdatedAt, &k.RotatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return k, nil
}

// Validate checks the given code against the active key for the action.
// A missing key and a wrong code are distinct failures so callers can
// tell an unconfigured action apart from a bad attempt.
func (r *Repository) Validate(ctx context.Context, action, code string) error {
	k, err := r.FindActive(ctx, action)
	if err != nil {
		return err
	}
	if !k.Matches(code) {
		return ErrInvalidCode
	}
	return nil
}

func (r *Repository) ListActive(ctx context.Context) ([]OperationKey, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, action, code_hash, is_active, owner_id, created_at, updated_at, rotated_at
		FROM operation_keys
		WHERE is_active = true
		ORDER BY action ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []OperationKey
	for rows.Next() {
		var k OperationKey
		if err := rows.Scan(
			&k.ID, &k.Action, &k.CodeHash, &k.IsActive, &k.OwnerID,
			&k.CreatedAt, &k.UpdatedAt, &k.RotatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, k)
	}
	return list, rows.Err()
}
