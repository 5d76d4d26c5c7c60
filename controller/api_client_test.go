package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/labstack/echo/v4"
)

func setupTestAPI(t *testing.T) (*echo.Echo, *model.Store) {
	t.Helper()
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	e := echo.New()
	ctrl := &controller{model: store, exports: newExportGuard()}

	// Register routes without auth middleware for testing
	api := e.Group("/api/v1")
	api.GET("/clients", ctrl.apiClientList)
	api.GET("/clients/:id", ctrl.apiClientGet)
	api.POST("/clients", ctrl.apiClientCreate)
	api.GET("/invoices", ctrl.apiInvoiceList)
	api.GET("/invoices/:id", ctrl.apiInvoiceGet)
	api.POST("/invoices/:id/status", ctrl.apiInvoiceStatus)

	return e, store
}

func setOwnerContext(c echo.Context, ownerID uint) {
	c.Set(string(ctxOwnerID), ownerID)
}

func TestAPIClientList(t *testing.T) {
	e, _ := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/clients")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodGet, "/api/v1/clients", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result APIClientList
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON unmarshal error: %v", err)
	}

	// SeedTestData creates one client
	if len(result.Items) != 1 {
		t.Errorf("Items count = %d, want 1", len(result.Items))
	}
}

func TestAPIClientGet_NotFound(t *testing.T) {
	e, _ := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/9999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("9999")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodGet, "/api/v1/clients/9999", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAPIClientCreate(t *testing.T) {
	e, store := setupTestAPI(t)

	body := `{"name":"Société Béta","email":"beta@example.com","city":"Porto-Novo"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/clients")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodPost, "/api/v1/clients", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var result APIClient
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON unmarshal error: %v", err)
	}
	if result.ID == 0 {
		t.Error("created client should have an id")
	}

	found, err := store.FindClientsWithText("béta", fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("FindClientsWithText failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("created client not found via search, hits = %d", len(found))
	}
}

func TestAPIClientCreate_MissingName(t *testing.T) {
	e, _ := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"city":"Cotonou"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/clients")
	setOwnerContext(c, fixtures.DefaultOwnerID)

	e.Router().Find(http.MethodPost, "/api/v1/clients", c)
	if err := c.Handler()(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
