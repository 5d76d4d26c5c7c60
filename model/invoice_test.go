package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestInvoice_SaveAndLoad(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice(
		fixtures.WithNumber("FAC-2025-0007"),
		fixtures.WithDiscount("50"),
	)
	inv.Notes = "Merci de votre confiance."

	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}
	if inv.ID == 0 {
		t.Fatal("Invoice ID should be non-zero after save")
	}

	loaded, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}

	if loaded.Number != "FAC-2025-0007" {
		t.Errorf("Number = %q, want %q", loaded.Number, "FAC-2025-0007")
	}
	if len(loaded.Items) != 2 {
		t.Errorf("Items count = %d, want 2", len(loaded.Items))
	}
	if loaded.Status != model.InvoiceStatusDraft {
		t.Errorf("Status = %q, want %q", loaded.Status, model.InvoiceStatusDraft)
	}
	if loaded.Client.Name != "Entreprise Alpha" {
		t.Errorf("Client.Name = %q, want snapshot name", loaded.Client.Name)
	}
	// cached totals recomputed on load: 1000 + 18% - 50
	if want := decimal.RequireFromString("1130"); !loaded.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", loaded.Total, want)
	}
}

func TestInvoice_SaveValidation(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice(fixtures.WithItems())
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != model.ErrNoItems {
		t.Errorf("no items: err = %v, want ErrNoItems", err)
	}

	inv = fixtures.Invoice(fixtures.WithClientName(""))
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != model.ErrClientRequired {
		t.Errorf("no client: err = %v, want ErrClientRequired", err)
	}
}

func TestInvoice_OwnerScoping(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice()
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}

	if _, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID+1); err == nil {
		t.Error("LoadInvoice returned another owner's invoice")
	}
}

func TestInvoice_SaveReplacesItems(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice()
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}

	inv.Items = []model.InvoiceItem{fixtures.Item("Révision", 3, 200)}
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("second SaveInvoice failed: %v", err)
	}

	loaded, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("Items count = %d, want 1 after replacement", len(loaded.Items))
	}
	if want := decimal.RequireFromString("600"); !loaded.Subtotal.Equal(want) {
		t.Errorf("Subtotal = %s, want %s", loaded.Subtotal, want)
	}
}

func TestInvoice_SetStatus(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice()
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}

	// any state reaches any other state, there is no transition machine
	for _, to := range []model.InvoiceStatus{
		model.InvoiceStatusPending,
		model.InvoiceStatusPaid,
		model.InvoiceStatusOverdue,
		model.InvoiceStatusCancelled,
		model.InvoiceStatusDraft,
	} {
		if err := store.SetInvoiceStatus(inv.ID, fixtures.DefaultOwnerID, to); err != nil {
			t.Fatalf("SetInvoiceStatus(%s) failed: %v", to, err)
		}
		loaded, _ := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
		if loaded.Status != to {
			t.Errorf("Status = %q, want %q", loaded.Status, to)
		}
	}

	if err := store.SetInvoiceStatus(inv.ID, fixtures.DefaultOwnerID, "archived"); err == nil {
		t.Error("unknown status accepted")
	}

	err := store.SetInvoiceStatus(inv.ID+100, fixtures.DefaultOwnerID, model.InvoiceStatusPaid)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("nonexistent id: err = %v, want ErrRecordNotFound", err)
	}
	err = store.SetInvoiceStatus(inv.ID, fixtures.DefaultOwnerID+1, model.InvoiceStatusPaid)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("other owner: err = %v, want ErrRecordNotFound", err)
	}
}

func TestInvoice_NumberSequence(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	last, err := store.LastInvoiceNumber(fixtures.DefaultOwnerID, 2025)
	if err != nil {
		t.Fatalf("LastInvoiceNumber failed: %v", err)
	}
	if last != "" {
		t.Fatalf("LastInvoiceNumber = %q, want empty on fresh store", last)
	}
	if got := model.NextInvoiceNumber(last, 2025); got != "FAC-2025-0001" {
		t.Fatalf("first number = %q", got)
	}

	for _, n := range []string{"FAC-2025-0001", "FAC-2025-0002", "FAC-2024-0099"} {
		inv := fixtures.Invoice(fixtures.WithNumber(n))
		if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
			t.Fatalf("SaveInvoice(%s) failed: %v", n, err)
		}
	}

	last, err = store.LastInvoiceNumber(fixtures.DefaultOwnerID, 2025)
	if err != nil {
		t.Fatalf("LastInvoiceNumber failed: %v", err)
	}
	if last != "FAC-2025-0002" {
		t.Errorf("LastInvoiceNumber = %q, want FAC-2025-0002", last)
	}
	if got := model.NextInvoiceNumber(last, 2025); got != "FAC-2025-0003" {
		t.Errorf("next number = %q, want FAC-2025-0003", got)
	}
}

// Past 9999 the counter outgrows its padding. The five digit number must
// still win over the lexicographically larger four digit one.
func TestInvoice_NumberSequencePastPadding(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	for _, n := range []string{"FAC-2025-9999", "FAC-2025-10000"} {
		inv := fixtures.Invoice(fixtures.WithNumber(n))
		if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
			t.Fatalf("SaveInvoice(%s) failed: %v", n, err)
		}
	}

	last, err := store.LastInvoiceNumber(fixtures.DefaultOwnerID, 2025)
	if err != nil {
		t.Fatalf("LastInvoiceNumber failed: %v", err)
	}
	if last != "FAC-2025-10000" {
		t.Errorf("LastInvoiceNumber = %q, want FAC-2025-10000", last)
	}
	if got := model.NextInvoiceNumber(last, 2025); got != "FAC-2025-10001" {
		t.Errorf("next number = %q, want FAC-2025-10001", got)
	}
}

func TestInvoice_Duplicate(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	src := fixtures.Invoice(
		fixtures.WithNumber("FAC-2025-0001"),
		fixtures.WithStatus(model.InvoiceStatusPaid),
	)
	if err := store.SaveInvoice(src, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	dup, err := store.DuplicateInvoice(src.ID, fixtures.DefaultOwnerID, now)
	if err != nil {
		t.Fatalf("DuplicateInvoice failed: %v", err)
	}

	if dup.ID == src.ID {
		t.Fatal("duplicate shares the source id")
	}
	if dup.Number != "FAC-2025-0002" {
		t.Errorf("duplicate number = %q, want FAC-2025-0002", dup.Number)
	}
	if dup.Status != model.InvoiceStatusDraft {
		t.Errorf("duplicate status = %q, want draft", dup.Status)
	}
	if len(dup.Items) != len(src.Items) {
		t.Errorf("duplicate items = %d, want %d", len(dup.Items), len(src.Items))
	}
}

func TestInvoice_Delete(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	inv := fixtures.Invoice()
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}
	if err := store.DeleteInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("DeleteInvoice failed: %v", err)
	}
	if _, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID); err == nil {
		t.Error("invoice still loadable after delete")
	}
}

func TestListInvoices(t *testing.T) {
	store := fixtures.NewTestStore(t)
	fixtures.SeedTestData(t, store)

	for i := 1; i <= 5; i++ {
		status := model.InvoiceStatusDraft
		if i%2 == 0 {
			status = model.InvoiceStatusPaid
		}
		inv := fixtures.Invoice(
			fixtures.WithNumber(fmt.Sprintf("FAC-2025-%04d", i)),
			fixtures.WithStatus(status),
		)
		if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
			t.Fatalf("SaveInvoice failed: %v", err)
		}
	}

	items, next, err := store.ListInvoices(fixtures.DefaultOwnerID, model.InvoiceListQuery{Limit: 3})
	if err != nil {
		t.Fatalf("ListInvoices failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("page size = %d, want 3", len(items))
	}
	if next == "" {
		t.Fatal("expected a next cursor")
	}

	items, next, err = store.ListInvoices(fixtures.DefaultOwnerID, model.InvoiceListQuery{Limit: 3, Cursor: next})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("second page size = %d, want 2", len(items))
	}
	if next != "" {
		t.Errorf("unexpected cursor %q on last page", next)
	}

	paid, _, err := store.ListInvoices(fixtures.DefaultOwnerID, model.InvoiceListQuery{Status: model.InvoiceStatusPaid})
	if err != nil {
		t.Fatalf("status filter failed: %v", err)
	}
	if len(paid) != 2 {
		t.Errorf("paid invoices = %d, want 2", len(paid))
	}
}

func TestClient_SaveSearchDelete(t *testing.T) {
	store := fixtures.NewTestStore(t)
	data := fixtures.SeedTestData(t, store)

	found, err := store.FindClientsWithText("alpha", fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("FindClientsWithText failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("search hits = %d, want 1", len(found))
	}

	// deleting the client must not touch invoices embedding its snapshot
	inv := fixtures.Invoice(fixtures.WithClientID(data.Client.ID))
	if err := store.SaveInvoice(inv, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("SaveInvoice failed: %v", err)
	}
	if err := store.DeleteClient(data.Client.ID, fixtures.DefaultOwnerID); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	loaded, err := store.LoadInvoice(inv.ID, fixtures.DefaultOwnerID)
	if err != nil {
		t.Fatalf("LoadInvoice failed: %v", err)
	}
	if loaded.Client.Name != "Entreprise Alpha" {
		t.Errorf("snapshot lost after client delete: %q", loaded.Client.Name)
	}
}
