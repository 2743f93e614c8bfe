package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/suppliers"
	"backoffice/internal/params"
)

type SupplierPayload struct {
	BusinessName   string  `json:"business_name" validate:"required,min=1,max=150"`
	TradeName      *string `json:"trade_name,omitempty" validate:"omitempty,max=150"`
	DocumentTypeID int64   `json:"document_type_id" validate:"required"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country        *string `json:"country,omitempty" validate:"omitempty,max=100"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// listSuppliersHandler godoc
//
//	@Summary		List suppliers
//	@Tags			suppliers
//	@Produce		json
//	@Param			search	query	string	false	"Free-text search"
//	@Param			page	query	int		false	"Page"
//	@Param			limit	query	int		false	"Page size"
//	@Success		200		{array}	suppliers.Supplier
//	@Security		ApiKeyAuth
//	@Router			/suppliers [get]
func (app *application) listSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())
	search := params.ParseSearch(r.URL.Query())

	list, err := app.store.Suppliers.List(r.Context(), search, &p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.paginatedResponse(w, http.StatusOK, list, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createSupplierHandler godoc
//
//	@Summary		Create a supplier
//	@Tags			suppliers
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SupplierPayload	true	"Supplier details"
//	@Success		201		{object}	suppliers.Supplier
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suppliers [post]
func (app *application) createSupplierHandler(w http.ResponseWriter, r *http.Request) {
	var payload SupplierPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s := &suppliers.Supplier{
		BusinessName:   payload.BusinessName,
		TradeName:      nullString(payload.TradeName),
		DocumentTypeID: payload.DocumentTypeID,
		DocumentNumber: payload.DocumentNumber,
		Email:          nullString(payload.Email),
		Phone:          nullString(payload.Phone),
		Address:        nullString(payload.Address),
		City:           nullString(payload.City),
		Country:        nullString(payload.Country),
	}
	if err := app.store.Suppliers.Create(r.Context(), s); err != nil {
		switch {
		case errors.Is(err, suppliers.ErrDuplicateEmail), errors.Is(err, suppliers.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSupplierHandler godoc
//
//	@Summary		Get a supplier
//	@Tags			suppliers
//	@Produce		json
//	@Param			supplierID	path		int	true	"Supplier ID"
//	@Success		200			{object}	suppliers.Supplier
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suppliers/{supplierID} [get]
func (app *application) getSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s, err := app.store.Suppliers.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, suppliers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateSupplierHandler godoc
//
//	@Summary		Update a supplier
//	@Tags			suppliers
//	@Accept			json
//	@Produce		json
//	@Param			supplierID	path		int				true	"Supplier ID"
//	@Param			payload		body		SupplierPayload	true	"Supplier details"
//	@Success		200			{object}	suppliers.Supplier
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suppliers/{supplierID} [put]
func (app *application) updateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload SupplierPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s, err := app.store.Suppliers.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, suppliers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	s.BusinessName = payload.BusinessName
	s.TradeName = nullString(payload.TradeName)
	s.DocumentTypeID = payload.DocumentTypeID
	s.DocumentNumber = payload.DocumentNumber
	s.Email = nullString(payload.Email)
	s.Phone = nullString(payload.Phone)
	s.Address = nullString(payload.Address)
	s.City = nullString(payload.City)
	s.Country = nullString(payload.Country)
	if payload.IsActive != nil {
		s.IsActive = *payload.IsActive
	}

	if err := app.store.Suppliers.Update(r.Context(), s); err != nil {
		switch {
		case errors.Is(err, suppliers.ErrDuplicateEmail), errors.Is(err, suppliers.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		case errors.Is(err, suppliers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteSupplierHandler godoc
//
//	@Summary		Soft-delete a supplier
//	@Tags			suppliers
//	@Produce		json
//	@Param			supplierID	path		int		true	"Supplier ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suppliers/{supplierID} [delete]
func (app *application) deleteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Suppliers.SoftDelete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, suppliers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// restoreSupplierHandler godoc
//
//	@Summary		Restore a soft-deleted supplier
//	@Tags			suppliers
//	@Produce		json
//	@Param			supplierID	path		int	true	"Supplier ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suppliers/{supplierID}/restore [post]
func (app *application) restoreSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "supplierID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Suppliers.Restore(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, suppliers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "supplier restored"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
