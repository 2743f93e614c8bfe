package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/rbac"
)

// listPermissionsHandler godoc
//
//	@Summary		List permissions
//	@Tags			permissions
//	@Produce		json
//	@Success		200	{array}	rbac.Permission
//	@Security		ApiKeyAuth
//	@Router			/permissions [get]
func (app *application) listPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	perms, err := app.store.Permissions.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, perms); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreatePermissionPayload struct {
	ModuleKey   string `json:"module_key" validate:"required,min=1,max=50"`
	ActionKey   string `json:"action_key" validate:"required,min=1,max=50"`
	Description string `json:"description" validate:"max=255"`
	SortOrder   int    `json:"sort_order" validate:"gte=0"`
}

// createPermissionHandler godoc
//
//	@Summary		Create a permission
//	@Description	The permission code is derived as module_key.action_key; the module must already exist.
//	@Tags			permissions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreatePermissionPayload	true	"Permission details"
//	@Success		201		{object}	rbac.Permission
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions [post]
func (app *application) createPermissionHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePermissionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	perm, err := app.store.Permissions.Create(r.Context(), payload.ModuleKey, payload.ActionKey, payload.Description, payload.SortOrder)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, rbac.ErrDuplicateCode):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, perm); err != nil {
		app.internalServerError(w, r, err)
	}
}

// permissionTreeHandler godoc
//
//	@Summary		Permission catalog grouped by module
//	@Tags			permissions
//	@Produce		json
//	@Success		200	{array}	rbac.ModuleTree
//	@Security		ApiKeyAuth
//	@Router			/permissions/tree [get]
func (app *application) permissionTreeHandler(w http.ResponseWriter, r *http.Request) {
	tree, err := app.store.Permissions.Tree(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tree); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdatePermissionPayload struct {
	Description string `json:"description" validate:"max=255"`
	SortOrder   int    `json:"sort_order" validate:"gte=0"`
}

// updatePermissionHandler godoc
//
//	@Summary		Update a permission's description and ordering
//	@Tags			permissions
//	@Accept			json
//	@Produce		json
//	@Param			permissionID	path		int						true	"Permission ID"
//	@Param			payload			body		UpdatePermissionPayload	true	"Fields to update"
//	@Success		200				{object}	rbac.Permission
//	@Failure		404				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions/{permissionID} [put]
func (app *application) updatePermissionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "permissionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdatePermissionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	perm, err := app.store.Permissions.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	perm.Description = payload.Description
	perm.SortOrder = payload.SortOrder

	if err := app.store.Permissions.Update(r.Context(), perm); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, perm); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePermissionHandler godoc
//
//	@Summary		Delete a permission
//	@Tags			permissions
//	@Produce		json
//	@Param			permissionID	path		int		true	"Permission ID"
//	@Success		204				{string}	string	"No Content"
//	@Failure		404				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions/{permissionID} [delete]
func (app *application) deletePermissionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "permissionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Permissions.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listPermissionModulesHandler godoc
//
//	@Summary		List permission modules
//	@Tags			permissions
//	@Produce		json
//	@Success		200	{array}	rbac.PermissionModule
//	@Security		ApiKeyAuth
//	@Router			/permissions/modules [get]
func (app *application) listPermissionModulesHandler(w http.ResponseWriter, r *http.Request) {
	modules, err := app.store.Permissions.ListModules(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, modules); err != nil {
		app.internalServerError(w, r, err)
	}
}

type PermissionModulePayload struct {
	ModuleKey string `json:"module_key" validate:"required,min=1,max=50"`
	Label     string `json:"label" validate:"required,min=1,max=100"`
	Icon      string `json:"icon" validate:"max=50"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// createPermissionModuleHandler godoc
//
//	@Summary		Create a permission module
//	@Tags			permissions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PermissionModulePayload	true	"Module details"
//	@Success		201		{object}	rbac.PermissionModule
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions/modules [post]
func (app *application) createPermissionModuleHandler(w http.ResponseWriter, r *http.Request) {
	var payload PermissionModulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	m := &rbac.PermissionModule{
		ModuleKey: payload.ModuleKey,
		Label:     payload.Label,
		Icon:      payload.Icon,
		SortOrder: payload.SortOrder,
	}
	if err := app.store.Permissions.CreateModule(r.Context(), m); err != nil {
		switch {
		case errors.Is(err, rbac.ErrDuplicateCode):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, m); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updatePermissionModuleHandler godoc
//
//	@Summary		Update a permission module
//	@Tags			permissions
//	@Accept			json
//	@Produce		json
//	@Param			moduleID	path		int						true	"Module ID"
//	@Param			payload		body		PermissionModulePayload	true	"Module details"
//	@Success		200			{object}	rbac.PermissionModule
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions/modules/{moduleID} [put]
func (app *application) updatePermissionModuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "moduleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload PermissionModulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	m := &rbac.PermissionModule{
		ID:        id,
		ModuleKey: payload.ModuleKey,
		Label:     payload.Label,
		Icon:      payload.Icon,
		SortOrder: payload.SortOrder,
	}
	if err := app.store.Permissions.UpdateModule(r.Context(), m); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, rbac.ErrDuplicateCode):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, m); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePermissionModuleHandler godoc
//
//	@Summary		Delete a permission module
//	@Tags			permissions
//	@Produce		json
//	@Param			moduleID	path		int		true	"Module ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/permissions/modules/{moduleID} [delete]
func (app *application) deletePermissionModuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "moduleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Permissions.DeleteModule(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
