package main

import (
	"errors"
	"net/http"

	"backoffice/internal/domain/customers"
	"backoffice/internal/params"
)

type CustomerPayload struct {
	Name           string  `json:"name" validate:"required,min=1,max=150"`
	DocumentTypeID int64   `json:"document_type_id" validate:"required"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=255"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// listCustomersHandler godoc
//
//	@Summary		List customers
//	@Tags			customers
//	@Produce		json
//	@Param			search	query	string	false	"Free-text search"
//	@Param			page	query	int		false	"Page"
//	@Param			limit	query	int		false	"Page size"
//	@Success		200		{array}	customers.Customer
//	@Security		ApiKeyAuth
//	@Router			/customers [get]
func (app *application) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())
	search := params.ParseSearch(r.URL.Query())

	list, err := app.store.Customers.List(r.Context(), search, &p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.paginatedResponse(w, http.StatusOK, list, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createCustomerHandler godoc
//
//	@Summary		Create a customer
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CustomerPayload	true	"Customer details"
//	@Success		201		{object}	customers.Customer
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/customers [post]
func (app *application) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var payload CustomerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c := &customers.Customer{
		Name:           payload.Name,
		DocumentTypeID: payload.DocumentTypeID,
		DocumentNumber: payload.DocumentNumber,
		Email:          nullString(payload.Email),
		Phone:          nullString(payload.Phone),
		Address:        nullString(payload.Address),
	}
	if err := app.store.Customers.Create(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, customers.ErrDuplicateEmail), errors.Is(err, customers.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCustomerHandler godoc
//
//	@Summary		Get a customer
//	@Tags			customers
//	@Produce		json
//	@Param			customerID	path		int	true	"Customer ID"
//	@Success		200			{object}	customers.Customer
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/customers/{customerID} [get]
func (app *application) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "customerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Customers.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateCustomerHandler godoc
//
//	@Summary		Update a customer
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			customerID	path		int				true	"Customer ID"
//	@Param			payload		body		CustomerPayload	true	"Customer details"
//	@Success		200			{object}	customers.Customer
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/customers/{customerID} [put]
func (app *application) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "customerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CustomerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Customers.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	c.Name = payload.Name
	c.DocumentTypeID = payload.DocumentTypeID
	c.DocumentNumber = payload.DocumentNumber
	c.Email = nullString(payload.Email)
	c.Phone = nullString(payload.Phone)
	c.Address = nullString(payload.Address)
	if payload.IsActive != nil {
		c.IsActive = *payload.IsActive
	}

	if err := app.store.Customers.Update(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, customers.ErrDuplicateEmail), errors.Is(err, customers.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		case errors.Is(err, customers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteCustomerHandler godoc
//
//	@Summary		Soft-delete a customer
//	@Tags			customers
//	@Produce		json
//	@Param			customerID	path		int		true	"Customer ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/customers/{customerID} [delete]
func (app *application) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "customerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Customers.SoftDelete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// restoreCustomerHandler godoc
//
//	@Summary		Restore a soft-deleted customer
//	@Tags			customers
//	@Produce		json
//	@Param			customerID	path		int	true	"Customer ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/customers/{customerID}/restore [post]
func (app *application) restoreCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "customerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Customers.Restore(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "customer restored"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
