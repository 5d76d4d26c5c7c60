package render

import (
	"fmt"
	"strings"

	"github.com/facturio/facturio/model"
)

// Build resolves an invoice and the issuing company into a render-ready
// Document for the given template. Every populated field of the inputs
// ends up in the output; empty optional data omits its section.
func Build(templateID string, inv *model.Invoice, profile *model.CompanyProfile, opts Options) (*Document, error) {
	style, ok := styles[templateID]
	if !ok {
		return nil, fmt.Errorf("build %q: %w", templateID, ErrUnknownTemplate)
	}
	opts.fillDefaults()
	strs := localeStrings(opts.Locale)

	accent := style.Accent
	if opts.AccentColor != "" {
		accent = opts.AccentColor
	}

	doc := &Document{
		TemplateID: templateID,
		Style:      style,
		Locale:     opts.Locale,
		Accent:     accent,
		Paper:      PaperByName(opts.PaperFormat),
		Currency:   opts.Currency,
		Title:      strs.InvoiceTitle,
		Number:     inv.Number,
		Logo:       profile.Logo,
	}

	doc.Company = Party{
		Label:   strs.From,
		Name:    profile.Name,
		Address: profile.Address,
		City:    profile.City,
		Phone:   profile.Phone,
		Email:   profile.Email,
	}
	doc.Client = Party{
		Label:   strs.BilledTo,
		Name:    inv.Client.Name,
		Address: inv.Client.Address,
		City:    inv.Client.City,
		Phone:   inv.Client.Phone,
		Email:   inv.Client.Email,
	}

	dateFmt := FormatDate
	if style.CompactDates {
		dateFmt = FormatDateShort
	}
	doc.DateLabel = strs.Date
	doc.DateValue = dateFmt(inv.Date, opts.Locale)
	doc.DueDateLabel = strs.DueDate
	doc.DueDateValue = dateFmt(inv.DueDate, opts.Locale)
	doc.StatusLabel = strs.Statuses[string(inv.Status)]

	doc.Columns = []string{strs.Description, strs.Quantity, strs.UnitPrice, strs.LineTotal}
	for _, item := range inv.Items {
		doc.Rows = append(doc.Rows, Row{
			Description: item.Description,
			Quantity:    FormatQuantity(item.Quantity, opts.Locale),
			UnitPrice:   FormatAmount(item.UnitPrice, opts.Locale, opts.Currency),
			LineTotal:   FormatAmount(item.LineTotal(), opts.Locale, opts.Currency),
		})
	}

	doc.Totals = append(doc.Totals, TotalLine{
		Label: strs.Subtotal,
		Value: FormatAmount(inv.Subtotal, opts.Locale, opts.Currency),
	})
	if !inv.TaxRate.IsZero() {
		doc.Totals = append(doc.Totals, TotalLine{
			Label: fmt.Sprintf("%s (%s%%)", strs.Tax, FormatQuantity(inv.TaxRate, opts.Locale)),
			Value: FormatAmount(inv.Tax, opts.Locale, opts.Currency),
		})
	}
	if !inv.Discount.IsZero() {
		doc.Totals = append(doc.Totals, TotalLine{
			Label: strs.Discount,
			Value: "-" + FormatAmount(inv.Discount, opts.Locale, opts.Currency),
		})
	}
	doc.Totals = append(doc.Totals, TotalLine{
		Label:    strs.GrandTotal,
		Value:    FormatAmount(inv.Total, opts.Locale, opts.Currency),
		Emphasis: true,
	})

	if strings.TrimSpace(inv.Notes) != "" {
		doc.NotesLabel = strs.Notes
		doc.Notes = inv.Notes
	}
	for _, img := range inv.Images {
		doc.Images = append(doc.Images, Image{Name: img.Name, Data: img.Data})
	}

	doc.Signature = resolveSignature(inv.Signature, profile.Name, inv.Client.Name, strs, opts.Target)

	doc.FooterLines = footerLines(profile, strs)
	return doc, nil
}

// footerLines assembles the fiscal and bank identifier lines shown at
// the bottom of every template. Empty identifiers leave no trace.
func footerLines(profile *model.CompanyProfile, strs stringTable) []string {
	var ids []string
	if profile.IFU != "" {
		ids = append(ids, "IFU "+profile.IFU)
	}
	if profile.RCCM != "" {
		ids = append(ids, "RCCM "+profile.RCCM)
	}
	if profile.TVA != "" {
		ids = append(ids, "TVA "+profile.TVA)
	}

	var bank []string
	if profile.BankName != "" {
		bank = append(bank, strs.Bank+" "+profile.BankName)
	}
	if profile.IBAN != "" {
		bank = append(bank, "IBAN "+profile.IBAN)
	}
	if profile.BIC != "" {
		bank = append(bank, "BIC "+profile.BIC)
	}

	var lines []string
	if len(ids) > 0 {
		lines = append(lines, strings.Join(ids, " · "))
	}
	if len(bank) > 0 {
		lines = append(lines, strings.Join(bank, " · "))
	}
	return lines
}
