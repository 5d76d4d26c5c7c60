package model_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/facturio/facturio/fixtures"
)

// The XML grand total must match the stored total, discount included:
// 1000 subtotal + 18% tax - 50 discount = 1130.
func TestCreateEInvoiceXML_DiscountedTotal(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice(fixtures.WithDiscount("50"))
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}
	loaded, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "facture.xml")
	if err := store.CreateEInvoiceXML(loaded, fixtures.DefaultOwnerID, path); err != nil {
		t.Fatalf("CreateEInvoiceXML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading XML: %v", err)
	}
	xml := string(data)

	if want := loaded.Total.StringFixed(2); want != "1130.00" {
		t.Fatalf("stored total = %s, want 1130.00", want)
	}
	for _, want := range []string{
		"<ram:AllowanceTotalAmount>50.00</ram:AllowanceTotalAmount>",
		"<ram:TaxBasisTotalAmount>950.00</ram:TaxBasisTotalAmount>",
		"<ram:GrandTotalAmount>1130.00</ram:GrandTotalAmount>",
		"<ram:DuePayableAmount>1130.00</ram:DuePayableAmount>",
		"<ram:Reason>Remise</ram:Reason>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("XML missing %q", want)
		}
	}
}

// Without a discount no allowance is emitted and the grand total is
// subtotal plus tax.
func TestCreateEInvoiceXML_NoDiscount(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice()
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}
	loaded, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "facture.xml")
	if err := store.CreateEInvoiceXML(loaded, fixtures.DefaultOwnerID, path); err != nil {
		t.Fatalf("CreateEInvoiceXML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading XML: %v", err)
	}
	xml := string(data)

	if !strings.Contains(xml, "<ram:GrandTotalAmount>1180.00</ram:GrandTotalAmount>") {
		t.Error("XML grand total does not match subtotal plus tax")
	}
	if strings.Contains(xml, "ram:SpecifiedTradeAllowanceCharge") {
		t.Error("allowance emitted without a discount")
	}
}
