package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/domain/keys"
	"backoffice/internal/domain/users"
	"backoffice/internal/params"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// listUsersHandler godoc
//
//	@Summary		List users
//	@Tags			users
//	@Produce		json
//	@Param			search	query		string	false	"Free-text search"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{array}		users.User
//	@Security		ApiKeyAuth
//	@Router			/users [get]
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())
	search := params.ParseSearch(r.URL.Query())

	list, err := app.store.Users.List(r.Context(), search, &p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.paginatedResponse(w, http.StatusOK, list, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateUserPayload struct {
	Name           string  `json:"name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	DocumentTypeID int64   `json:"document_type_id" validate:"required"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	RoleIDs        []int64 `json:"role_ids,omitempty"`
}

// createUserHandler godoc
//
//	@Summary		Create a user
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserPayload	true	"User details"
//	@Success		201		{object}	users.User
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [post]
func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		Name:           payload.Name,
		Email:          payload.Email,
		Phone:          nullString(payload.Phone),
		DocumentTypeID: payload.DocumentTypeID,
		DocumentNumber: payload.DocumentNumber,
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user, payload.RoleIDs); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail), errors.Is(err, users.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getUserHandler godoc
//
//	@Summary		Get a user
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	users.User
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	roles, err := app.store.Roles.ListForUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	user.Roles = roles

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	Name           string  `json:"name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	DocumentTypeID int64   `json:"document_type_id" validate:"required"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	IsActive       *bool   `json:"is_active,omitempty"`
	RoleIDs        []int64 `json:"role_ids,omitempty"`
}

// updateUserHandler godoc
//
//	@Summary		Update a user
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int					true	"User ID"
//	@Param			payload	body		UpdateUserPayload	true	"User details"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user.Name = payload.Name
	user.Email = payload.Email
	user.Phone = nullString(payload.Phone)
	user.DocumentTypeID = payload.DocumentTypeID
	user.DocumentNumber = payload.DocumentNumber
	if payload.IsActive != nil {
		user.IsActive = *payload.IsActive
	}

	if err := app.store.Users.Update(r.Context(), user, payload.RoleIDs); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail), errors.Is(err, users.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// changePasswordHandler godoc
//
//	@Summary		Change a user's password
//	@Description	The caller's current password is re-verified before the change.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int						true	"User ID"
//	@Param			payload	body		ChangePasswordPayload	true	"Passwords"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/password [put]
func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ChangePasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := getUserFromContext(r)
	if err := caller.Password.Compare(payload.CurrentPassword); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("current password does not match"))
		return
	}

	if err := app.store.Users.SetPassword(r.Context(), id, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type BulkUserIDsPayload struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// softDeleteUsersHandler godoc
//
//	@Summary		Soft-delete users
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BulkUserIDsPayload	true	"User IDs"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/bulk-delete [post]
func (app *application) softDeleteUsersHandler(w http.ResponseWriter, r *http.Request) {
	var payload BulkUserIDsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.SoftDeleteMany(r.Context(), payload.IDs); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "users deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// restoreUsersHandler godoc
//
//	@Summary		Restore soft-deleted users
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BulkUserIDsPayload	true	"User IDs"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/bulk-restore [post]
func (app *application) restoreUsersHandler(w http.ResponseWriter, r *http.Request) {
	var payload BulkUserIDsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.RestoreMany(r.Context(), payload.IDs); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "users restored"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type HardDeleteUsersPayload struct {
	IDs  []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Code string  `json:"code" validate:"required"`
}

// hardDeleteUsersHandler godoc
//
//	@Summary		Permanently delete users
//	@Description	Irreversible. Requires the active operation key for this action on top of the role and permission gates.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		HardDeleteUsersPayload	true	"User IDs and operation key code"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/bulk-destroy [post]
func (app *application) hardDeleteUsersHandler(w http.ResponseWriter, r *http.Request) {
	var payload HardDeleteUsersPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Keys.Validate(r.Context(), "users.hard_delete", payload.Code); err != nil {
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

	if err := app.store.Users.HardDeleteMany(r.Context(), payload.IDs); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "users permanently deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
