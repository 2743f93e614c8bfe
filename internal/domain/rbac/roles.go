package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/database"
)

type RolesStore interface {
	Create(ctx context.Context, role *Role, permissionIDs []int64) error
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	Update(ctx context.Context, role *Role, permissionIDs []int64) error
	Delete(ctx context.Context, id int64) error
	FindByIDs(ctx context.Context, ids []int64) ([]Role, error)
	AssignPermissionsByCode(ctx context.Context, roleID int64, codes []string) error
	ListForUser(ctx context.Context, userID int64) ([]Role, error)
	PermissionCodesForUser(ctx context.Context, userID int64) ([]string, error)
	UserHasRole(ctx context.Context, userID int64, roleName string) (bool, error)
}

type RolesRepository struct {
	db *pgxpool.Pool
}

func NewRolesRepository(db *pgxpool.Pool) RolesStore {
	return &RolesRepository{db: db}
}

func (r *RolesRepository) Create(ctx context.Context, role *Role, permissionIDs []int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO roles (name) VALUES ($1) RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, query, role.Name).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateRole
			}
			return err
		}
		return r.replacePermissions(ctx, tx, role.ID, permissionIDs)
	})
}

func (r *RolesRepository) replacePermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs []int64) error {
	if permissionIDs == nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, pid := range permissionIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, roleID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *RolesRepository) List(ctx context.Context) ([]Role, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `SELECT id, name, created_at, updated_at FROM roles ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := r.permissionsForRole(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (r *RolesRepository) GetByID(ctx context.Context, id int64) (*Role, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	role := &Role{}
	query := `SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms, err := r.permissionsForRole(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return role, nil
}

func (r *RolesRepository) permissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	query := `
		SELECT p.id, p.code, p.description, p.action_key, p.sort_order, p.module_id, p.created_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.code ASC
	`
	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.ActionKey, &p.SortOrder, &p.ModuleID, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *RolesRepository) Update(ctx context.Context, role *Role, permissionIDs []int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `UPDATE roles SET name = $1, updated_at = NOW() WHERE id = $2`
		result, err := tx.Exec(ctx, query, role.Name, role.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateRole
			}
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.replacePermissions(ctx, tx, role.ID, permissionIDs)
	})
}

func (r *RolesRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *RolesRepository) FindByIDs(ctx context.Context, ids []int64) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `SELECT id, name, created_at, updated_at FROM roles WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AssignPermissionsByCode merges the named permissions into the role,
// leaving existing assignments untouched.
func (r *RolesRepository) AssignPermissionsByCode(ctx context.Context, roleID int64, codes []string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, p.id FROM permissions p WHERE p.code = ANY($2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, roleID, codes)
	return err
}

func (r *RolesRepository) ListForUser(ctx context.Context, userID int64) ([]Role, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT r.id, r.name, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := r.permissionsForRole(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// PermissionCodesForUser returns the union of permission codes across all
// of the user's roles. The permission gate re-runs this on every request.
func (r *RolesRepository) PermissionCodesForUser(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT DISTINCT p.code
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *RolesRepository) UserHasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles r ON ur.role_id = r.id
			WHERE ur.user_id = $1 AND r.name = $2
		)
	`
	err := r.db.QueryRow(ctx, query, userID, roleName).Scan(&exists)
	return exists, err
}
