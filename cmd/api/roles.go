package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/rbac"
)

// listRolesHandler godoc
//
//	@Summary		List roles
//	@Tags			roles
//	@Produce		json
//	@Success		200	{array}	rbac.Role
//	@Security		ApiKeyAuth
//	@Router			/roles [get]
func (app *application) listRolesHandler(w http.ResponseWriter, r *http.Request) {
	roles, err := app.store.Roles.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, roles); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RolePayload struct {
	Name          string  `json:"name" validate:"required,min=1,max=50"`
	PermissionIDs []int64 `json:"permission_ids,omitempty"`
}

// createRoleHandler godoc
//
//	@Summary		Create a role
//	@Tags			roles
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RolePayload	true	"Role details"
//	@Success		201		{object}	rbac.Role
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/roles [post]
func (app *application) createRoleHandler(w http.ResponseWriter, r *http.Request) {
	var payload RolePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	role := &rbac.Role{Name: payload.Name}
	if err := app.store.Roles.Create(r.Context(), role, payload.PermissionIDs); err != nil {
		switch {
		case errors.Is(err, rbac.ErrDuplicateRole):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, role); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRoleHandler godoc
//
//	@Summary		Get a role with its permissions
//	@Tags			roles
//	@Produce		json
//	@Param			roleID	path		int	true	"Role ID"
//	@Success		200		{object}	rbac.Role
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/roles/{roleID} [get]
func (app *application) getRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	role, err := app.store.Roles.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, role); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateRoleHandler godoc
//
//	@Summary		Update a role
//	@Description	Replaces the role's name and, when permission_ids is present, its full permission assignment.
//	@Tags			roles
//	@Accept			json
//	@Produce		json
//	@Param			roleID	path		int			true	"Role ID"
//	@Param			payload	body		RolePayload	true	"Role details"
//	@Success		200		{object}	rbac.Role
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/roles/{roleID} [put]
func (app *application) updateRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RolePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	role := &rbac.Role{ID: id, Name: payload.Name}
	if err := app.store.Roles.Update(r.Context(), role, payload.PermissionIDs); err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, rbac.ErrDuplicateRole):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, role); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteRoleHandler godoc
//
//	@Summary		Delete a role
//	@Description	Also detaches the role from every user and permission.
//	@Tags			roles
//	@Produce		json
//	@Param			roleID	path		int	true	"Role ID"
//	@Success		204		{string}	string	"No Content"
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/roles/{roleID} [delete]
func (app *application) deleteRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Roles.Delete(r.Context(), id); err != nil {
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
