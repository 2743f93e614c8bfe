package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OverridesStore interface {
	ListForUser(ctx context.Context, userID int64) ([]Override, error)
	Upsert(ctx context.Context, userID, permissionID int64, effect OverrideEffect, expiresAt *time.Time, scope map[string]any) (*Override, error)
	Clear(ctx context.Context, userID, permissionID int64) error
}

type OverridesRepository struct {
	db *pgxpool.Pool
}

func NewOverridesRepository(db *pgxpool.Pool) OverridesStore {
	return &OverridesRepository{db: db}
}

func (r *OverridesRepository) ListForUser(ctx context.Context, userID int64) ([]Override, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT o.id, o.user_id, o.permission_id, p.code, o.effect, o.expires_at, o.scope, o.created_at, o.updated_at
		FROM user_permission_overrides o
		JOIN permissions p ON p.id = o.permission_id
		WHERE o.user_id = $1
		ORDER BY p.code ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, *ov)
	}
	return overrides, rows.Err()
}

func scanOverride(row pgx.Row) (*Override, error) {
	ov := &Override{}
	var scopeRaw []byte
	err := row.Scan(&ov.ID, &ov.UserID, &ov.PermissionID, &ov.Code, &ov.Effect, &ov.ExpiresAt, &scopeRaw, &ov.CreatedAt, &ov.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(scopeRaw) > 0 {
		if err := json.Unmarshal(scopeRaw, &ov.Scope); err != nil {
			return nil, err
		}
	}
	return ov, nil
}

// Upsert enforces the one-row-per-(user, permission) invariant: a second
// write for the same pair replaces effect, expiry and scope.
func (r *OverridesRepository) Upsert(ctx context.Context, userID, permissionID int64, effect OverrideEffect, expiresAt *time.Time, scope map[string]any) (*Override, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var scopeRaw []byte
	if scope != nil {
		var err error
		scopeRaw, err = json.Marshal(scope)
		if err != nil {
			return nil, err
		}
	}

	query := `
		INSERT INTO user_permission_overrides (user_id, permission_id, effect, expires_at, scope)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, permission_id) DO UPDATE
		SET effect = EXCLUDED.effect, expires_at = EXCLUDED.expires_at, scope = EXCLUDED.scope, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	ov := &Override{
		UserID:       userID,
		PermissionID: permissionID,
		Effect:       effect,
		ExpiresAt:    expiresAt,
		Scope:        scope,
	}
	err := r.db.QueryRow(ctx, query, userID, permissionID, effect, expiresAt, scopeRaw).
		Scan(&ov.ID, &ov.CreatedAt, &ov.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return ov, nil
}

func (r *OverridesRepository) Clear(ctx context.Context, userID, permissionID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx,
		`DELETE FROM user_permission_overrides WHERE user_id = $1 AND permission_id = $2`,
		userID, permissionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
