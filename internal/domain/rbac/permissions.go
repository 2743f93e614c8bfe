package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PermissionsStore interface {
	Create(ctx context.Context, moduleKey, actionKey, description string, sortOrder int) (*Permission, error)
	List(ctx context.Context) ([]Permission, error)
	GetByID(ctx context.Context, id int64) (*Permission, error)
	FindByCode(ctx context.Context, code string) (*Permission, error)
	Update(ctx context.Context, p *Permission) error
	Delete(ctx context.Context, id int64) error
	Tree(ctx context.Context) ([]ModuleTree, error)

	CreateModule(ctx context.Context, m *PermissionModule) error
	ListModules(ctx context.Context) ([]PermissionModule, error)
	GetModule(ctx context.Context, id int64) (*PermissionModule, error)
	UpdateModule(ctx context.Context, m *PermissionModule) error
	DeleteModule(ctx context.Context, id int64) error
}

type PermissionsRepository struct {
	db *pgxpool.Pool
}

func NewPermissionsRepository(db *pgxpool.Pool) PermissionsStore {
	return &PermissionsRepository{db: db}
}

// Create derives the code from moduleKey + actionKey; the module must exist.
func (r *PermissionsRepository) Create(ctx context.Context, moduleKey, actionKey, description string, sortOrder int) (*Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	moduleKey = strings.ToLower(strings.TrimSpace(moduleKey))

	var moduleID int64
	err := r.db.QueryRow(ctx, `SELECT id FROM permission_modules WHERE module_key = $1`, moduleKey).Scan(&moduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("permission module %q: %w", moduleKey, ErrNotFound)
		}
		return nil, err
	}

	p := &Permission{
		Code:        moduleKey + "." + actionKey,
		Description: description,
		ActionKey:   actionKey,
		SortOrder:   sortOrder,
		ModuleID:    moduleID,
	}

	query := `
		INSERT INTO permissions (code, description, action_key, sort_order, module_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, query, p.Code, p.Description, p.ActionKey, p.SortOrder, p.ModuleID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return p, nil
}

func (r *PermissionsRepository) List(ctx context.Context) ([]Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, code, description, action_key, sort_order, module_id, created_at
		FROM permissions ORDER BY code ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
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

func (r *PermissionsRepository) GetByID(ctx context.Context, id int64) (*Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Permission{}
	query := `
		SELECT id, code, description, action_key, sort_order, module_id, created_at
		FROM permissions WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Code, &p.Description, &p.ActionKey, &p.SortOrder, &p.ModuleID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PermissionsRepository) FindByCode(ctx context.Context, code string) (*Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Permission{}
	query := `
		SELECT id, code, description, action_key, sort_order, module_id, created_at
		FROM permissions WHERE code = $1
	`
	err := r.db.QueryRow(ctx, query, code).
		Scan(&p.ID, &p.Code, &p.Description, &p.ActionKey, &p.SortOrder, &p.ModuleID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PermissionsRepository) Update(ctx context.Context, p *Permission) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE permissions
		SET code = $1, description = $2, action_key = $3, sort_order = $4, module_id = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query, p.Code, p.Description, p.ActionKey, p.SortOrder, p.ModuleID, p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PermissionsRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Tree groups the catalog by module for the admin UI.
func (r *PermissionsRepository) Tree(ctx context.Context) ([]ModuleTree, error) {
	modules, err := r.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	byModule := make(map[int64][]Permission, len(modules))
	for _, p := range perms {
		byModule[p.ModuleID] = append(byModule[p.ModuleID], p)
	}

	tree := make([]ModuleTree, 0, len(modules))
	for _, m := range modules {
		children := byModule[m.ID]
		if children == nil {
			children = []Permission{}
		}
		tree = append(tree, ModuleTree{
			ModuleID:    m.ID,
			ModuleKey:   m.ModuleKey,
			ModuleLabel: m.Label,
			Icon:        m.Icon,
			Children:    children,
		})
	}
	return tree, nil
}

func (r *PermissionsRepository) CreateModule(ctx context.Context, m *PermissionModule) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	m.ModuleKey = strings.ToLower(strings.TrimSpace(m.ModuleKey))

	query := `
		INSERT INTO permission_modules (module_key, label, icon, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, m.ModuleKey, m.Label, m.Icon, m.SortOrder).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *PermissionsRepository) ListModules(ctx context.Context) ([]PermissionModule, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, module_key, label, COALESCE(icon, ''), sort_order, created_at
		FROM permission_modules
		ORDER BY sort_order ASC, label ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []PermissionModule
	for rows.Next() {
		var m PermissionModule
		if err := rows.Scan(&m.ID, &m.ModuleKey, &m.Label, &m.Icon, &m.SortOrder, &m.CreatedAt); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *PermissionsRepository) GetModule(ctx context.Context, id int64) (*PermissionModule, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	m := &PermissionModule{}
	query := `
		SELECT id, module_key, label, COALESCE(icon, ''), sort_order, created_at
		FROM permission_modules WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.ModuleKey, &m.Label, &m.Icon, &m.SortOrder, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *PermissionsRepository) UpdateModule(ctx context.Context, m *PermissionModule) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	m.ModuleKey = strings.ToLower(strings.TrimSpace(m.ModuleKey))

	query := `
		UPDATE permission_modules
		SET module_key = $1, label = $2, icon = $3, sort_order = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query, m.ModuleKey, m.Label, m.Icon, m.SortOrder, m.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PermissionsRepository) DeleteModule(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM permission_modules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
