package store

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/domain/customers"
	"backoffice/internal/domain/doctypes"
	"backoffice/internal/domain/keys"
	"backoffice/internal/domain/partners"
	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/resettokens"
	"backoffice/internal/domain/sessions"
	"backoffice/internal/domain/suppliers"
	"backoffice/internal/domain/users"
)

// Storage aggregates every domain store behind one value handed to the
// HTTP layer. Each field is the domain package's own interface, so
// handlers can be tested against fakes.
type Storage struct {
	Users         users.Store
	Sessions      sessions.Store
	ResetTokens   resettokens.Store
	Roles         rbac.RolesStore
	Permissions   rbac.PermissionsStore
	Overrides     rbac.OverridesStore
	Suppliers     suppliers.Store
	Customers     customers.Store
	Partners      partners.Store
	DocumentTypes doctypes.Store
	Keys          keys.Store
}

func NewStorage(db *pgxpool.Pool) Storage {
	roles := rbac.NewRolesRepository(db)
	return Storage{
		Users:         users.NewRepository(db, roles),
		Sessions:      sessions.NewRepository(db),
		ResetTokens:   resettokens.NewRepository(db),
		Roles:         roles,
		Permissions:   rbac.NewPermissionsRepository(db),
		Overrides:     rbac.NewOverridesRepository(db),
		Suppliers:     suppliers.NewRepository(db),
		Customers:     customers.NewRepository(db),
		Partners:      partners.NewRepository(db),
		DocumentTypes: doctypes.NewRepository(db),
		Keys:          keys.NewRepository(db),
	}
}
