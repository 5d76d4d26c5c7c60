package controller

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/facturio/facturio/model"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newFormContext(t *testing.T, ownerID uint, values url.Values) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoice/new", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("ownerid", ownerID)
	return c
}

func TestBindInvoice(t *testing.T) {
	values := url.Values{}
	values.Set("number", "FAC-2025-0010")
	values.Set("date", "2025-03-15")
	values.Set("duedate", "2025-04-15")
	values.Set("clientname", "Entreprise Alpha")
	values.Set("clientcity", "Cotonou")
	values.Set("taxrate", "18")
	values.Set("discount", "50,5")
	values.Set("signaturemode", "manual")
	values.Set("lines[0].description", "Prestation A")
	values.Set("lines[0].quantity", "2")
	values.Set("lines[0].unitprice", "1 500,00")
	values.Set("lines[1].description", "")
	values.Set("lines[1].quantity", "")
	values.Set("lines[1].unitprice", "")
	values.Set("lines[2].description", "Prestation B")
	values.Set("lines[2].quantity", "abc")
	values.Set("lines[2].unitprice", "100")

	c := newFormContext(t, 1, values)
	inv, _, err := bindInvoice(c)
	if err != nil {
		t.Fatalf("bindInvoice failed: %v", err)
	}

	if inv.Number != "FAC-2025-0010" {
		t.Errorf("Number = %q", inv.Number)
	}
	if inv.Client.Name != "Entreprise Alpha" {
		t.Errorf("Client.Name = %q", inv.Client.Name)
	}
	// decimal comma accepted
	if want := decimal.RequireFromString("50.5"); !inv.Discount.Equal(want) {
		t.Errorf("Discount = %s, want %s", inv.Discount, want)
	}

	// the fully empty line is dropped, positions renumbered
	if len(inv.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(inv.Items))
	}
	if inv.Items[1].Position != 2 {
		t.Errorf("second item position = %d, want 2", inv.Items[1].Position)
	}
	// unparseable quantity coerced to zero, line kept because of its text
	if !inv.Items[1].Quantity.IsZero() {
		t.Errorf("Quantity = %s, want 0", inv.Items[1].Quantity)
	}
}

func TestKeptImages(t *testing.T) {
	existing := []model.InvoiceImage{
		{ID: 1, Name: "a.png", Position: 1},
		{ID: 2, Name: "b.png", Position: 2},
		{ID: 3, Name: "c.png", Position: 3},
	}

	kept := keptImages(existing, []uint{3, 1})
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if kept[0].ID != 1 || kept[1].ID != 3 {
		t.Errorf("kept ids = %d,%d, want 1,3", kept[0].ID, kept[1].ID)
	}
	if kept[0].Position != 1 || kept[1].Position != 2 {
		t.Errorf("positions not renumbered: %d,%d", kept[0].Position, kept[1].Position)
	}

	if got := keptImages(existing, nil); len(got) != 0 {
		t.Errorf("empty keep list should drop all images, got %d", len(got))
	}
}

func TestFrenchStatusLabel(t *testing.T) {
	tests := []struct {
		in   model.InvoiceStatus
		want string
	}{
		{model.InvoiceStatusDraft, "Brouillon"},
		{model.InvoiceStatusPending, "En attente"},
		{model.InvoiceStatusPaid, "Payée"},
		{model.InvoiceStatusOverdue, "En retard"},
		{model.InvoiceStatusCancelled, "Annulée"},
		{"weird", "weird"},
	}
	for _, tc := range tests {
		if got := frenchStatusLabel(tc.in); got != tc.want {
			t.Errorf("frenchStatusLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCurrentExportURL(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices?status=paid&cursor=50&sort=date_asc", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	got := currentExportURL(c, "xlsx")
	if !strings.Contains(got, "format=xlsx") {
		t.Errorf("missing format param: %q", got)
	}
	if !strings.Contains(got, "status=paid") || !strings.Contains(got, "sort=date_asc") {
		t.Errorf("filters not kept: %q", got)
	}
	if strings.Contains(got, "cursor=") {
		t.Errorf("cursor should be dropped: %q", got)
	}
}
