package rbac

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateCode     = errors.New("a permission with that code already exists")
	ErrDuplicateRole     = errors.New("a role with that name already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is an atomic capability. Code is always derived as
// "<moduleKey>.<actionKey>" and is unique across the catalog.
type Permission struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	ActionKey   string    `json:"action_key"`
	SortOrder   int       `json:"sort_order"`
	ModuleID    int64     `json:"module_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionModule groups permissions for the catalog UI.
type PermissionModule struct {
	ID        int64     `json:"id"`
	ModuleKey string    `json:"module_key"`
	Label     string    `json:"label"`
	Icon      string    `json:"icon,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ModuleTree is the grouped catalog returned to the UI.
type ModuleTree struct {
	ModuleID    int64        `json:"module_id"`
	ModuleKey   string       `json:"module_key"`
	ModuleLabel string       `json:"module_label"`
	Icon        string       `json:"icon,omitempty"`
	Children    []Permission `json:"children"`
}

type OverrideEffect string

const (
	EffectAllow OverrideEffect = "allow"
	EffectDeny  OverrideEffect = "deny"
)

// Override is a per-user exception layered on top of role grants. At most
// one row exists per (user, permission); writes are upserts. A past expiry
// makes the override inert but does not delete it.
type Override struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	PermissionID int64          `json:"permission_id"`
	Code         string         `json:"code"`
	Effect       OverrideEffect `json:"effect"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	Scope        map[string]any `json:"scope,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Active reports whether the override still applies at the given instant.
func (o Override) Active(now time.Time) bool {
	return o.ExpiresAt == nil || o.ExpiresAt.After(now)
}
