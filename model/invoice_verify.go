package model

import (
	"strings"
)

// InvoiceProblem is one finding of the pre-export check. Level is
// "error" (blocks export) or "warning" (shown, does not block).
type InvoiceProblem struct {
	Level   string
	Message string
}

// VerifyInvoice checks an invoice and the issuing company profile before
// a PDF or e-invoice export. Messages are in French, the application's
// default locale.
func (store *Store) VerifyInvoice(inv *Invoice, profile *CompanyProfile) []InvoiceProblem {
	var problems []InvoiceProblem

	if strings.TrimSpace(inv.Number) == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "La facture n'a pas de numéro.",
		})
	}
	if len(inv.Items) == 0 {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "La facture doit contenir au moins une ligne.",
		})
	}
	if strings.TrimSpace(inv.Client.Name) == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "Le nom du client est obligatoire.",
		})
	}

	hasEmptyDescription := false
	for _, item := range inv.Items {
		if strings.TrimSpace(item.Description) == "" {
			hasEmptyDescription = true
			break
		}
	}
	if hasEmptyDescription {
		problems = append(problems, InvoiceProblem{
			Level:   "warning",
			Message: "Une ou plusieurs lignes n'ont pas de désignation.",
		})
	}

	if inv.TaxRate.IsNegative() {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "Le taux de TVA ne peut pas être négatif.",
		})
	}
	if inv.Total.IsNegative() {
		problems = append(problems, InvoiceProblem{
			Level:   "warning",
			Message: "La remise dépasse le montant de la facture, le total est négatif.",
		})
	}

	if profile.Name == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "Le nom de votre entreprise n'est pas renseigné dans les paramètres.",
		})
	}
	if profile.Address == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "L'adresse de votre entreprise n'est pas renseignée dans les paramètres.",
		})
	}
	if profile.City == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "error",
			Message: "La ville de votre entreprise n'est pas renseignée dans les paramètres.",
		})
	}
	if profile.IFU == "" && profile.RCCM == "" {
		problems = append(problems, InvoiceProblem{
			Level:   "warning",
			Message: "Aucun identifiant fiscal (IFU ou RCCM) n'est renseigné dans les paramètres.",
		})
	}

	return problems
}

// HasBlockingProblem reports whether any finding has level "error".
func HasBlockingProblem(problems []InvoiceProblem) bool {
	for _, p := range problems {
		if p.Level == "error" {
			return true
		}
	}
	return false
}
