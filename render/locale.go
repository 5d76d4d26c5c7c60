package render

// stringTable holds every fixed document string for one locale.
type stringTable struct {
	InvoiceTitle string
	From         string
	BilledTo     string
	Date         string
	DueDate      string
	Description  string
	Quantity     string
	UnitPrice    string
	LineTotal    string
	Subtotal     string
	Tax          string
	Discount     string
	GrandTotal   string
	Notes        string
	ReadApproved string
	Phone        string
	Email        string
	Bank         string

	Statuses map[string]string
}

var locales = map[string]stringTable{
	"fr": {
		InvoiceTitle: "FACTURE",
		From:         "Émetteur",
		BilledTo:     "Facturé à",
		Date:         "Date",
		DueDate:      "Échéance",
		Description:  "Désignation",
		Quantity:     "Qté",
		UnitPrice:    "Prix unitaire",
		LineTotal:    "Montant",
		Subtotal:     "Sous-total",
		Tax:          "TVA",
		Discount:     "Remise",
		GrandTotal:   "Total",
		Notes:        "Notes",
		ReadApproved: "Lu et approuvé",
		Phone:        "Tél",
		Email:        "E-mail",
		Bank:         "Banque",
		Statuses: map[string]string{
			"draft":     "Brouillon",
			"pending":   "En attente",
			"paid":      "Payée",
			"overdue":   "En retard",
			"cancelled": "Annulée",
		},
	},
	"en": {
		InvoiceTitle: "INVOICE",
		From:         "From",
		BilledTo:     "Billed to",
		Date:         "Date",
		DueDate:      "Due date",
		Description:  "Description",
		Quantity:     "Qty",
		UnitPrice:    "Unit price",
		LineTotal:    "Amount",
		Subtotal:     "Subtotal",
		Tax:          "Tax",
		Discount:     "Discount",
		GrandTotal:   "Total",
		Notes:        "Notes",
		ReadApproved: "Read and approved",
		Phone:        "Phone",
		Email:        "Email",
		Bank:         "Bank",
		Statuses: map[string]string{
			"draft":     "Draft",
			"pending":   "Pending",
			"paid":      "Paid",
			"overdue":   "Overdue",
			"cancelled": "Cancelled",
		},
	},
}

// localeStrings returns the table for the given locale, falling back to
// French for anything unknown.
func localeStrings(locale string) stringTable {
	if t, ok := locales[locale]; ok {
		return t
	}
	return locales["fr"]
}
