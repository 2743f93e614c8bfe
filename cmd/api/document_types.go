package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/doctypes"
)

type DocumentTypePayload struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Digits      int    `json:"digits" validate:"required,gt=0,lte=20"`
	Description string `json:"description" validate:"max=255"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// listDocumentTypesHandler godoc
//
//	@Summary		List document types
//	@Tags			document-types
//	@Produce		json
//	@Success		200	{array}	doctypes.DocumentType
//	@Security		ApiKeyAuth
//	@Router			/document-types [get]
func (app *application) listDocumentTypesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.DocumentTypes.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createDocumentTypeHandler godoc
//
//	@Summary		Create a document type
//	@Tags			document-types
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		DocumentTypePayload	true	"Document type details"
//	@Success		201		{object}	doctypes.DocumentType
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/document-types [post]
func (app *application) createDocumentTypeHandler(w http.ResponseWriter, r *http.Request) {
	var payload DocumentTypePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dt := &doctypes.DocumentType{
		Name:        payload.Name,
		Digits:      payload.Digits,
		Description: payload.Description,
	}
	if err := app.store.DocumentTypes.Create(r.Context(), dt); err != nil {
		switch {
		case errors.Is(err, doctypes.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, dt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDocumentTypeHandler godoc
//
//	@Summary		Get a document type
//	@Tags			document-types
//	@Produce		json
//	@Param			docTypeID	path		int	true	"Document type ID"
//	@Success		200			{object}	doctypes.DocumentType
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/document-types/{docTypeID} [get]
func (app *application) getDocumentTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "docTypeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dt, err := app.store.DocumentTypes.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, doctypes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, dt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateDocumentTypeHandler godoc
//
//	@Summary		Update a document type
//	@Tags			document-types
//	@Accept			json
//	@Produce		json
//	@Param			docTypeID	path		int					true	"Document type ID"
//	@Param			payload		body		DocumentTypePayload	true	"Document type details"
//	@Success		200			{object}	doctypes.DocumentType
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/document-types/{docTypeID} [put]
func (app *application) updateDocumentTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "docTypeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload DocumentTypePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dt, err := app.store.DocumentTypes.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, doctypes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	dt.Name = payload.Name
	dt.Digits = payload.Digits
	dt.Description = payload.Description
	if payload.IsActive != nil {
		dt.IsActive = *payload.IsActive
	}

	if err := app.store.DocumentTypes.Update(r.Context(), dt); err != nil {
		switch {
		case errors.Is(err, doctypes.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		case errors.Is(err, doctypes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, dt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteDocumentTypeHandler godoc
//
//	@Summary		Soft-delete a document type
//	@Tags			document-types
//	@Produce		json
//	@Param			docTypeID	path		int		true	"Document type ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/document-types/{docTypeID} [delete]
func (app *application) deleteDocumentTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "docTypeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.DocumentTypes.SoftDelete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, doctypes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// restoreDocumentTypeHandler godoc
//
//	@Summary		Restore a soft-deleted document type
//	@Tags			document-types
//	@Produce		json
//	@Param			docTypeID	path		int	true	"Document type ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/document-types/{docTypeID}/restore [post]
func (app *application) restoreDocumentTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "docTypeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.DocumentTypes.Restore(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, doctypes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "document type restored"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
