// Package fixtures provides shared builders and a throwaway store for
// model and controller tests.
package fixtures

import (
	"testing"
	"time"

	"github.com/facturio/facturio/model"
	"github.com/shopspring/decimal"
)

// DefaultOwnerID is the owner every builder scopes to unless overridden.
const DefaultOwnerID uint = 1

// NewTestStore opens a migrated in-memory store that lives for one test.
func NewTestStore(t *testing.T) *model.Store {
	t.Helper()
	store, err := model.OpenTestStore()
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return store
}

// TestData is what SeedTestData put into the store.
type TestData struct {
	User    *model.User
	Client  *model.Client
	Profile *model.CompanyProfile
}

// SeedTestData creates a user, one client and a company profile for
// DefaultOwnerID.
func SeedTestData(t *testing.T, store *model.Store) *TestData {
	t.Helper()

	user := &model.User{Email: "owner@example.com", Verified: true}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	client := Client()
	if err := store.SaveClient(client, DefaultOwnerID); err != nil {
		t.Fatalf("seed client: %v", err)
	}

	profile := CompanyProfile()
	if err := store.SaveCompanyProfile(profile, DefaultOwnerID); err != nil {
		t.Fatalf("seed company profile: %v", err)
	}

	return &TestData{User: user, Client: client, Profile: profile}
}

// Item builds one invoice line.
func Item(description string, quantity, unitPrice float64) model.InvoiceItem {
	return model.InvoiceItem{
		OwnerID:     DefaultOwnerID,
		Description: description,
		Quantity:    decimal.NewFromFloat(quantity),
		UnitPrice:   decimal.NewFromFloat(unitPrice),
	}
}

// SampleItems is the standard two-line fixture: 2 × 500 = 1000.
func SampleItems() []model.InvoiceItem {
	return []model.InvoiceItem{
		Item("Prestation A", 1, 500),
		Item("Prestation B", 1, 500),
	}
}

type InvoiceOption func(*model.Invoice)

func WithNumber(number string) InvoiceOption {
	return func(i *model.Invoice) { i.Number = number }
}

func WithItems(items ...model.InvoiceItem) InvoiceOption {
	return func(i *model.Invoice) { i.Items = items }
}

func WithImages(images ...model.InvoiceImage) InvoiceOption {
	return func(i *model.Invoice) { i.Images = images }
}

func WithTaxRate(rate string) InvoiceOption {
	return func(i *model.Invoice) { i.TaxRate = decimal.RequireFromString(rate) }
}

func WithDiscount(discount string) InvoiceOption {
	return func(i *model.Invoice) { i.Discount = decimal.RequireFromString(discount) }
}

func WithStatus(status model.InvoiceStatus) InvoiceOption {
	return func(i *model.Invoice) { i.Status = status }
}

func WithClientID(id uint) InvoiceOption {
	return func(i *model.Invoice) { i.Client.ClientID = id }
}

func WithClientName(name string) InvoiceOption {
	return func(i *model.Invoice) { i.Client.Name = name }
}

func WithSignature(sig model.SignatureSettings) InvoiceOption {
	return func(i *model.Invoice) { i.Signature = sig }
}

func WithDates(date, due time.Time) InvoiceOption {
	return func(i *model.Invoice) {
		i.Date = date
		i.DueDate = due
	}
}

// Invoice builds a draft invoice with sensible defaults and recomputed
// totals. Pass options to override fields.
func Invoice(opts ...InvoiceOption) *model.Invoice {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	inv := &model.Invoice{
		OwnerID: DefaultOwnerID,
		Number:  "FAC-2025-0001",
		Date:    date,
		DueDate: date.AddDate(0, 1, 0),
		Status:  model.InvoiceStatusDraft,
		Client: model.ClientSnapshot{
			Name:    "Entreprise Alpha",
			Email:   "contact@alpha.example",
			Phone:   "+229 21 00 00 00",
			Address: "Rue des Cocotiers",
			City:    "Cotonou",
		},
		Items:   SampleItems(),
		TaxRate: decimal.NewFromInt(18),
		Signature: model.SignatureSettings{
			Mode:                 "manual",
			ShowCompanySignature: true,
			CompanySignerTitle:   "Directeur",
			ClientSignerTitle:    "Client",
		},
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.RecomputeTotals()
	return inv
}

// Client builds a stored client matching the default invoice snapshot.
func Client() *model.Client {
	return &model.Client{
		OwnerID: DefaultOwnerID,
		Name:    "Entreprise Alpha",
		Email:   "contact@alpha.example",
		Phone:   "+229 21 00 00 00",
		Address: "Rue des Cocotiers",
		City:    "Cotonou",
		Country: "Benin",
	}
}

// CompanyProfile builds the issuing company used across render tests.
func CompanyProfile() *model.CompanyProfile {
	return &model.CompanyProfile{
		OwnerID:     DefaultOwnerID,
		Name:        "Facturio SARL",
		Address:     "Boulevard de la Marina",
		City:        "Cotonou",
		Country:     "Benin",
		Phone:       "+229 21 30 30 30",
		Email:       "facture@facturio.example",
		IFU:         "3201900000000",
		RCCM:        "RB/COT/19 B 2345",
		IBAN:        "BJ06 6010 0100 0000 1234 5678 901",
		BIC:         "FACTBJBJ",
		BankName:    "Banque Atlantique",
		SignerTitle: "Directeur",
	}
}
