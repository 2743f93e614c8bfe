package main

import (
	"errors"
	"net/http"
	"strconv"

	"backoffice/internal/domain/partners"
	"backoffice/internal/params"
)

type PartnerPayload struct {
	CompanyID      int64   `json:"company_id" validate:"required"`
	Name           string  `json:"name" validate:"required,min=1,max=150"`
	TradeName      *string `json:"trade_name,omitempty" validate:"omitempty,max=150"`
	DocumentTypeID int64   `json:"document_type_id" validate:"required"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=255"`
	IsClient       bool    `json:"is_client"`
	IsSupplier     bool    `json:"is_supplier"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// listPartnersHandler godoc
//
//	@Summary		List business partners for a company
//	@Tags			partners
//	@Produce		json
//	@Param			company_id	query	int		true	"Company ID"
//	@Param			search		query	string	false	"Free-text search"
//	@Param			page		query	int		false	"Page"
//	@Param			limit		query	int		false	"Page size"
//	@Success		200			{array}	partners.Partner
//	@Security		ApiKeyAuth
//	@Router			/partners [get]
func (app *application) listPartnersHandler(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := params.ParsePagination(r.URL.Query())
	search := params.ParseSearch(r.URL.Query())

	list, err := app.store.Partners.List(r.Context(), companyID, search, &p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.paginatedResponse(w, http.StatusOK, list, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createPartnerHandler godoc
//
//	@Summary		Create a business partner
//	@Description	Assigns an opaque reference code derived from the company and partner ids.
//	@Tags			partners
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PartnerPayload	true	"Partner details"
//	@Success		201		{object}	partners.Partner
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/partners [post]
func (app *application) createPartnerHandler(w http.ResponseWriter, r *http.Request) {
	var payload PartnerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := &partners.Partner{
		CompanyID:      payload.CompanyID,
		Name:           payload.Name,
		TradeName:      nullString(payload.TradeName),
		DocumentTypeID: payload.DocumentTypeID,
		DocumentNumber: payload.DocumentNumber,
		Email:          nullString(payload.Email),
		Phone:          nullString(payload.Phone),
		Address:        nullString(payload.Address),
		IsClient:       payload.IsClient,
		IsSupplier:     payload.IsSupplier,
	}

	ctx := r.Context()

	if err := app.store.Partners.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, partners.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	code, err := app.refCodes.Generate(p.CompanyID, p.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.store.Partners.SetReferenceCode(ctx, p.ID, code); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ReferenceCode = code

	if err := app.jsonResponse(w, http.StatusCreated, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPartnerHandler godoc
//
//	@Summary		Get a business partner
//	@Tags			partners
//	@Produce		json
//	@Param			partnerID	path		int	true	"Partner ID"
//	@Success		200			{object}	partners.Partner
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/partners/{partnerID} [get]
func (app *application) getPartnerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "partnerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.store.Partners.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, partners.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updatePartnerHandler godoc
//
//	@Summary		Update a business partner
//	@Description	The company and reference code are fixed at creation and cannot change.
//	@Tags			partners
//	@Accept			json
//	@Produce		json
//	@Param			partnerID	path		int				true	"Partner ID"
//	@Param			payload		body		PartnerPayload	true	"Partner details"
//	@Success		200			{object}	partners.Partner
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/partners/{partnerID} [put]
func (app *application) updatePartnerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "partnerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload PartnerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.store.Partners.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, partners.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	p.Name = payload.Name
	p.TradeName = nullString(payload.TradeName)
	p.DocumentTypeID = payload.DocumentTypeID
	p.DocumentNumber = payload.DocumentNumber
	p.Email = nullString(payload.Email)
	p.Phone = nullString(payload.Phone)
	p.Address = nullString(payload.Address)
	p.IsClient = payload.IsClient
	p.IsSupplier = payload.IsSupplier
	if payload.IsActive != nil {
		p.IsActive = *payload.IsActive
	}

	if err := app.store.Partners.Update(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, partners.ErrDuplicateDocNumber):
			app.conflictResponse(w, r, err)
		case errors.Is(err, partners.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePartnerHandler godoc
//
//	@Summary		Soft-delete a business partner
//	@Tags			partners
//	@Produce		json
//	@Param			partnerID	path		int		true	"Partner ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/partners/{partnerID} [delete]
func (app *application) deletePartnerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "partnerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Partners.SoftDelete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, partners.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// restorePartnerHandler godoc
//
//	@Summary		Restore a soft-deleted business partner
//	@Tags			partners
//	@Produce		json
//	@Param			partnerID	path		int	true	"Partner ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/partners/{partnerID}/restore [post]
func (app *application) restorePartnerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "partnerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Partners.Restore(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, partners.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "partner restored"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
