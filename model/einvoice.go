package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/biter777/countries"
	"github.com/shopspring/decimal"
	"github.com/speedata/einvoice"
)

// countryID returns a two letter alpha code for the given country name
func countryID(country string) string {
	c := countries.ByName(country)
	if c == countries.Unknown {
		return "BJ" // default
	}
	return c.Alpha2()
}

func filterEmpty(ss ...string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CreateEInvoiceXML writes the EN 16931 XML for the invoice to the given
// path. Seller data comes from the company profile, buyer data from the
// client snapshot embedded in the invoice.
func (store *Store) CreateEInvoiceXML(inv *Invoice, ownerID uint, path string) error {
	profile, err := store.LoadCompanyProfile(ownerID)
	if err != nil {
		return err
	}

	currency := profile.Currency
	if currency == "" {
		currency = "XOF"
	}
	if currency == "FCFA" {
		currency = "XOF" // ISO 4217 code of the CFA franc
	}

	var sb strings.Builder

	// notes joined with a dot separator, replaced by a line break in
	// the PDF viewer
	text := strings.TrimSpace(strings.Join(filterEmpty(inv.Notes), "·"))

	zi := einvoice.Invoice{
		InvoiceNumber:       inv.Number,
		InvoiceTypeCode:     380,
		Profile:             einvoice.CProfileEN16931,
		InvoiceDate:         inv.Date,
		OccurrenceDateTime:  inv.Date,
		InvoiceCurrencyCode: currency,
		TaxCurrencyCode:     currency,
		Notes: []einvoice.Note{{
			Text: text,
		}},
		Seller: einvoice.Party{
			Name:              profile.Name,
			VATaxRegistration: profile.TVA,
			PostalAddress: &einvoice.PostalAddress{
				Line1:     profile.Address,
				City:      profile.City,
				CountryID: countryID(profile.Country),
			},
			DefinedTradeContact: []einvoice.DefinedTradeContact{{
				PersonName: profile.Name,
				EMail:      profile.Email,
			}},
		},
		Buyer: einvoice.Party{
			Name: inv.Client.Name,
			PostalAddress: &einvoice.PostalAddress{
				Line1:     inv.Client.Address,
				City:      inv.Client.City,
				CountryID: countryID(inv.Client.Country),
			},
			DefinedTradeContact: []einvoice.DefinedTradeContact{{
				PersonName: inv.Client.Name,
			}},
		},
		PaymentMeans: []einvoice.PaymentMeans{
			{
				TypeCode:                                      30,
				PayeePartyCreditorFinancialAccountIBAN:        profile.IBAN,
				PayeePartyCreditorFinancialAccountName:        profile.BankName,
				PayeeSpecifiedCreditorFinancialInstitutionBIC: profile.BIC,
			},
		},
		SpecifiedTradePaymentTerms: []einvoice.SpecifiedTradePaymentTerms{{
			DueDate: inv.DueDate,
		}},
	}

	for _, item := range inv.Items {
		li := einvoice.InvoiceLine{
			LineID:                   fmt.Sprintf("%d", item.Position),
			ItemName:                 item.Description,
			BilledQuantity:           item.Quantity,
			BilledQuantityUnit:       "C62", // unit: piece
			NetPrice:                 item.UnitPrice,
			TaxRateApplicablePercent: inv.TaxRate,
			Total:                    item.LineTotal(),
			TaxTypeCode:              "VAT",
			TaxCategoryCode:          "S",
		}
		zi.InvoiceLines = append(zi.InvoiceLines, li)
	}

	// The engine taxes the full subtotal and subtracts the discount
	// afterwards, so the discount is a tax-free document allowance.
	// AllowanceTotal must be set by hand, UpdateTotals only reads it.
	if inv.Discount.IsPositive() {
		zi.SpecifiedTradeAllowanceCharge = append(zi.SpecifiedTradeAllowanceCharge, einvoice.AllowanceCharge{
			ChargeIndicator:                       false,
			ActualAmount:                          inv.Discount,
			Reason:                                "Remise",
			ReasonCode:                            95, // UNTDID 5189: discount
			CategoryTradeTaxType:                  "VAT",
			CategoryTradeTaxCategoryCode:          "Z",
			CategoryTradeTaxRateApplicablePercent: decimal.Zero,
		})
		zi.AllowanceTotal = inv.Discount
	}
	zi.UpdateApplicableTradeTax(nil)
	zi.UpdateTotals()

	if err = zi.Write(&sb); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}
