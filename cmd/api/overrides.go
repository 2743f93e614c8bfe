package main

import (
	"errors"
	"net/http"
	"time"

	"backoffice/internal/domain/rbac"
	"backoffice/internal/domain/users"
)

// listOverridesHandler godoc
//
//	@Summary		List a user's permission overrides
//	@Description	Returns every override row, including expired ones; expired rows are inert but kept for audit.
//	@Tags			overrides
//	@Produce		json
//	@Param			userID	path	int	true	"User ID"
//	@Success		200		{array}	rbac.Override
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/overrides [get]
func (app *application) listOverridesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	overrides, err := app.store.Overrides.ListForUser(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, overrides); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpsertOverridePayload struct {
	PermissionCode string         `json:"permission_code" validate:"required"`
	Effect         string         `json:"effect" validate:"required,oneof=allow deny"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Scope          map[string]any `json:"scope,omitempty"`
}

// upsertOverrideHandler godoc
//
//	@Summary		Set an allow or deny override for a user
//	@Description	At most one override exists per user and permission; repeating the call replaces the previous effect.
//	@Tags			overrides
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int						true	"User ID"
//	@Param			payload	body		UpsertOverridePayload	true	"Override details"
//	@Success		200		{object}	rbac.Override
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/overrides [put]
func (app *application) upsertOverrideHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpsertOverridePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	if _, err := app.store.Users.GetByID(ctx, userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	perm, err := app.store.Permissions.FindByCode(ctx, payload.PermissionCode)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	override, err := app.store.Overrides.Upsert(ctx, userID, perm.ID, rbac.OverrideEffect(payload.Effect), payload.ExpiresAt, payload.Scope)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, override); err != nil {
		app.internalServerError(w, r, err)
	}
}

// clearOverrideHandler godoc
//
//	@Summary		Remove an override
//	@Tags			overrides
//	@Produce		json
//	@Param			userID			path		int		true	"User ID"
//	@Param			permissionID	path		int		true	"Permission ID"
//	@Success		204				{string}	string	"No Content"
//	@Failure		404				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/overrides/{permissionID} [delete]
func (app *application) clearOverrideHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	permissionID, err := parseIDParam(r, "permissionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Overrides.Clear(r.Context(), userID, permissionID); err != nil {
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
