package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"backoffice/internal/domain/doctypes"
	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/users"
	"backoffice/internal/params"
	"backoffice/internal/store"
)

// Config holds the first-run admin account. All three fields must be
// set for seeding to create the user.
type Config struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type moduleDef struct {
	key     string
	name    string
	icon    string
	actions []string
}

var defaultModules = []moduleDef{
	{key: "users", name: "Users", icon: "user", actions: []string{"read", "create", "update", "delete"}},
	{key: "roles", name: "Roles", icon: "shield", actions: []string{"read", "create", "update", "delete"}},
	{key: "permissions", name: "Permissions", icon: "key", actions: []string{"read", "create", "update", "delete"}},
	{key: "suppliers", name: "Suppliers", icon: "truck", actions: []string{"read", "create", "update", "delete"}},
	{key: "customers", name: "Customers", icon: "users", actions: []string{"read", "create", "update", "delete"}},
	{key: "partners", name: "Business Partners", icon: "briefcase", actions: []string{"read", "create", "update", "delete"}},
	{key: "document_types", name: "Document Types", icon: "file", actions: []string{"read", "create", "update", "delete"}},
	{key: "keys", name: "Operation Keys", icon: "lock", actions: []string{"read", "create", "validate"}},
}

const AdminRoleName = "admin"

// Seed prepares an empty database for first use: the base document
// type, the permission catalog, the admin role holding every
// permission, and the initial admin user. It is a no-op once any user
// exists.
func Seed(ctx context.Context, storage store.Storage, logger *zap.SugaredLogger, cfg Config) error {
	p := &params.Pagination{Limit: 1, Offset: 0, Page: 1}
	if _, err := storage.Users.List(ctx, "", p); err != nil {
		return fmt.Errorf("bootstrap: counting users: %w", err)
	}
	if p.Total > 0 {
		logger.Infow("bootstrap skipped, users already present", "count", p.Total)
		return nil
	}

	docType, err := ensureDocumentType(ctx, storage)
	if err != nil {
		return fmt.Errorf("bootstrap: document type: %w", err)
	}

	codes, err := ensurePermissions(ctx, storage, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: permissions: %w", err)
	}

	adminRole, err := ensureAdminRole(ctx, storage, codes)
	if err != nil {
		return fmt.Errorf("bootstrap: admin role: %w", err)
	}

	if cfg.AdminName == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Warnw("bootstrap: admin credentials not configured, no admin user created")
		return nil
	}

	if err := createAdminUser(ctx, storage, cfg, docType.ID, adminRole.ID); err != nil {
		return fmt.Errorf("bootstrap: admin user: %w", err)
	}

	logger.Infow("bootstrap complete", "admin_email", cfg.AdminEmail, "permissions", len(codes))
	return nil
}

func ensureDocumentType(ctx context.Context, storage store.Storage) (*doctypes.DocumentType, error) {
	dt, err := storage.DocumentTypes.GetByName(ctx, "DNI")
	if err == nil {
		return dt, nil
	}
	if !errors.Is(err, doctypes.ErrNotFound) {
		return nil, err
	}

	dt = &doctypes.DocumentType{Name: "DNI", Digits: 8, Description: "National identity document"}
	if err := storage.DocumentTypes.Create(ctx, dt); err != nil {
		return nil, err
	}
	return dt, nil
}

func ensurePermissions(ctx context.Context, storage store.Storage, logger *zap.SugaredLogger) ([]string, error) {
	var codes []string
	for i, m := range defaultModules {
		mod := &rbac.PermissionModule{
			ModuleKey: m.key,
			Label:     m.name,
			Icon:      m.icon,
			SortOrder: i + 1,
		}
		if err := storage.Permissions.CreateModule(ctx, mod); err != nil && !errors.Is(err, rbac.ErrDuplicateCode) {
			return nil, err
		}

		for j, action := range m.actions {
			code := m.key + "." + action
			if _, err := storage.Permissions.Create(ctx, m.key, action, "", j+1); err != nil {
				if errors.Is(err, rbac.ErrDuplicateCode) {
					logger.Debugw("permission already present", "code", code)
				} else {
					return nil, err
				}
			}
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func ensureAdminRole(ctx context.Context, storage store.Storage, codes []string) (*rbac.Role, error) {
	role := &rbac.Role{Name: AdminRoleName}
	err := storage.Roles.Create(ctx, role, nil)
	if err != nil {
		if !errors.Is(err, rbac.ErrDuplicateRole) {
			return nil, err
		}
		existing, listErr := storage.Roles.List(ctx)
		if listErr != nil {
			return nil, listErr
		}
		for i := range existing {
			if existing[i].Name == AdminRoleName {
				role = &existing[i]
				break
			}
		}
	}
	if role.ID == 0 {
		return nil, fmt.Errorf("admin role missing after create")
	}

	if err := storage.Roles.AssignPermissionsByCode(ctx, role.ID, codes); err != nil {
		return nil, err
	}
	return role, nil
}

func createAdminUser(ctx context.Context, storage store.Storage, cfg Config, docTypeID, roleID int64) error {
	u := &users.User{
		Name:           cfg.AdminName,
		Email:          cfg.AdminEmail,
		DocumentTypeID: docTypeID,
		DocumentNumber: "00000000",
	}
	if err := u.Password.Set(cfg.AdminPassword); err != nil {
		return err
	}
	return storage.Users.Create(ctx, u, []int64{roleID})
}
