package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/facturio/facturio/model"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type apiInvoiceListQuery struct {
	Status   string `query:"status"`
	ClientID uint   `query:"client_id"`
	Limit    int    `query:"limit"`
	Cursor   string `query:"cursor"`
	Sort     string `query:"sort"`
}

func invoiceHeadToAPI(v *model.Invoice) APIInvoice {
	return APIInvoice{
		ID:            v.ID,
		Number:        v.Number,
		Status:        string(v.Status),
		Date:          v.Date,
		DueDate:       v.DueDate,
		ClientID:      v.Client.ClientID,
		ClientName:    v.Client.Name,
		ClientEmail:   v.Client.Email,
		ClientCity:    v.Client.City,
		ClientCountry: v.Client.Country,
		TaxRate:       v.TaxRate.String(),
		Discount:      v.Discount.String(),
		Subtotal:      v.Subtotal.String(),
		Tax:           v.Tax.String(),
		Total:         v.Total.String(),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func (ctrl *controller) apiInvoiceList(c echo.Context) error {
	ownerID := apiOwnerID(c)
	var q apiInvoiceListQuery
	if err := c.Bind(&q); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_query", "invalid query params"))
	}
	invs, next, err := ctrl.model.ListInvoices(ownerID, model.InvoiceListQuery{
		Status:   model.InvoiceStatus(q.Status),
		ClientID: q.ClientID,
		Limit:    q.Limit,
		Cursor:   q.Cursor,
		Sort:     q.Sort,
	})
	if err != nil {
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not load invoices"))
	}

	items := make([]APIInvoice, len(invs))
	for i := range invs {
		items[i] = invoiceHeadToAPI(&invs[i])
	}
	return respond(c, http.StatusOK, APIInvoiceList{Items: items, NextCursor: next})
}

func (ctrl *controller) apiInvoiceGet(c echo.Context) error {
	ownerID := apiOwnerID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}
	inv, err := ctrl.model.LoadInvoice(uint(id), ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respond(c, http.StatusNotFound, apiError("not_found", "invoice not found"))
		}
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not load invoice"))
	}

	out := invoiceHeadToAPI(inv)
	out.Notes = inv.Notes
	out.Items = make([]APIInvoiceItem, len(inv.Items))
	for i, it := range inv.Items {
		out.Items[i] = APIInvoiceItem{
			ID:          it.ID,
			Position:    it.Position,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.String(),
			LineTotal:   it.LineTotal().String(),
		}
	}

	c.Response().Header().Set("ETag",
		`W/"inv-`+strconv.FormatUint(uint64(inv.ID), 10)+
			`-`+strconv.FormatInt(inv.UpdatedAt.Unix(), 10)+`"`)

	return respond(c, http.StatusOK, out)
}

// apiInvoiceStatus sets the status of one invoice. Any of the five known
// states may be requested; there is no transition machine.
func (ctrl *controller) apiInvoiceStatus(c echo.Context) error {
	ownerID := apiOwnerID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}

	var payload struct {
		Status string `json:"status" xml:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid payload"))
	}
	status := model.InvoiceStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
	if !model.ValidInvoiceStatus(status) {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid status value"))
	}

	if err := ctrl.model.SetInvoiceStatus(uint(id), ownerID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respond(c, http.StatusNotFound, apiError("not_found", "invoice not found"))
		}
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not update status"))
	}
	return respond(c, http.StatusOK, map[string]string{"status": string(status)})
}
