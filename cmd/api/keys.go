package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/keys"
)

// listOperationKeysHandler godoc
//
//	@Summary		List active operation keys
//	@Description	Returns the active key per action. Code hashes never serialize.
//	@Tags			keys
//	@Produce		json
//	@Success		200	{array}	keys.OperationKey
//	@Security		ApiKeyAuth
//	@Router			/keys [get]
func (app *application) listOperationKeysHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Keys.ListActive(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RotateOperationKeyPayload struct {
	Action string `json:"action" validate:"required,min=1,max=100"`
	Code   string `json:"code" validate:"required,min=4,max=72"`
}

// rotateOperationKeyHandler godoc
//
//	@Summary		Create or rotate an operation key
//	@Description	Deactivates any existing key for the action and installs the new code. The caller becomes the key's owner.
//	@Tags			keys
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RotateOperationKeyPayload	true	"Action and new code"
//	@Success		201		{object}	keys.OperationKey
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/keys [post]
func (app *application) rotateOperationKeyHandler(w http.ResponseWriter, r *http.Request) {
	var payload RotateOperationKeyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hash, err := keys.HashCode(payload.Code)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	caller := getUserFromContext(r)
	k := &keys.OperationKey{
		Action:   payload.Action,
		CodeHash: hash,
		OwnerID:  caller.ID,
	}
	if err := app.store.Keys.CreateOrRotate(r.Context(), k); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, k); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ValidateOperationKeyPayload struct {
	Action string `json:"action" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// validateOperationKeyHandler godoc
//
//	@Summary		Validate an operation key code
//	@Description	Checks a code against the active key for an action. An unconfigured action is a 400; a wrong code is a 403.
//	@Tags			keys
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ValidateOperationKeyPayload	true	"Action and code"
//	@Success		200		{object}	map[string]bool
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/keys/validate [post]
func (app *application) validateOperationKeyHandler(w http.ResponseWriter, r *http.Request) {
	var payload ValidateOperationKeyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Keys.Validate(r.Context(), payload.Action, payload.Code); err != nil {
		switch {
		case errors.Is(err, keys.ErrNotFound):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, keys.ErrInvalidCode):
			app.forbiddenResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"valid": true}); err != nil {
		app.internalServerError(w, r, err)
	}
}
