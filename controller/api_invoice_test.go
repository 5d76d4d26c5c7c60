package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/labstack/echo/v4"
)

func seedInvoices(t *testing.T, store *model.Store, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 1; i <= n; i++ {
		inv := fixtures.Invoice(fixtures.WithNumber(fmt.Sprintf("FAC-2025-%04d", i)))
		if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
			t.Fatalf("SaveInvoice failed: %v", err)
		}
		ids = append(ids, inv.ID)
	}
	return ids
}

func TestAPIInvoiceList(t *testing.T) {
	e, store := setupTestAPI(t)
	seedInvoices(t, store, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/invoices")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodGet, "/api/v1/invoices", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result APIInvoiceList
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON unmarshal error: %v", err)
	}
	if len(result.Items) != 3 {
		t.Errorf("Items count = %d, want 3", len(result.Items))
	}
	if result.Items[0].ClientName != "Entreprise Alpha" {
		t.Errorf("ClientName = %q, want snapshot name", result.Items[0].ClientName)
	}
}

func TestAPIInvoiceGet(t *testing.T) {
	e, store := setupTestAPI(t)
	ids := seedInvoices(t, store, 1)
	idStr := fmt.Sprint(ids[0])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+idStr, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/invoices/:id")
	c.SetParamNames("id")
	c.SetParamValues(idStr)
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodGet, "/api/v1/invoices/"+idStr, c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var result APIInvoice
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON unmarshal error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Errorf("line count = %d, want 2", len(result.Items))
	}
	// 2 × 500 + 18% tax
	if result.Total != "1180" {
		t.Errorf("Total = %q, want 1180", result.Total)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("ETag header should be set")
	}
}

func TestAPIInvoiceStatus(t *testing.T) {
	e, store := setupTestAPI(t)
	ids := seedInvoices(t, store, 1)
	idStr := fmt.Sprint(ids[0])

	body := `{"status":"paid"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+idStr+"/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/invoices/:id/status")
	c.SetParamNames("id")
	c.SetParamValues(idStr)
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodPost, "/api/v1/invoices/"+idStr+"/status", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	loaded, err := store.LoadInvoice(ids[0], fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}
	if loaded.Status != model.InvoiceStatusPaid {
		t.Errorf("Status = %q, want paid", loaded.Status)
	}
}

func TestAPIInvoiceStatus_NotFound(t *testing.T) {
	e, _ := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/999/status", strings.NewReader(`{"status":"paid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/invoices/:id/status")
	c.SetParamNames("id")
	c.SetParamValues("999")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodPost, "/api/v1/invoices/999/status", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d: %s", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestAPIInvoiceStatus_Invalid(t *testing.T) {
	e, store := setupTestAPI(t)
	ids := seedInvoices(t, store, 1)
	idStr := fmt.Sprint(ids[0])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+idStr+"/status", strings.NewReader(`{"status":"archived"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/invoices/:id/status")
	c.SetParamNames("id")
	c.SetParamValues(idStr)
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodPost, "/api/v1/invoices/"+idStr+"/status", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
