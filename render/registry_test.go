package render_test

import (
	"strings"
	"testing"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/facturio/facturio/render"
)

func TestBuildUnknownTemplate(t *testing.T) {
	inv := fixtures.Invoice()
	profile := fixtures.CompanyProfile()

	if _, err := render.Build("vintage", inv, profile, render.Options{}); err == nil {
		t.Fatal("expected error for unknown template id")
	}
	if render.IsValidTemplate("vintage") {
		t.Error("IsValidTemplate accepted an unknown id")
	}
	for _, id := range render.TemplateIDs() {
		if !render.IsValidTemplate(id) {
			t.Errorf("IsValidTemplate rejected registered id %q", id)
		}
	}
}

// Every template must carry every populated field of the invoice into
// the interactive output.
func TestHTMLRoundTripAllTemplates(t *testing.T) {
	inv := fixtures.Invoice(
		fixtures.WithNumber("FAC-2025-0042"),
	)
	inv.Notes = "Paiement sous 30 jours."
	profile := fixtures.CompanyProfile()

	wantSubstrings := []string{
		"FAC-2025-0042",
		"FACTURE",
		"Entreprise Alpha",
		"Facturio SARL",
		"Prestation A",
		"Prestation B",
		"1 000,00 FCFA", // subtotal
		"1 180,00 FCFA", // total with 18% tax
		"Paiement sous 30 jours.",
		"15 mars 2025",
		"IFU 3201900000000",
	}

	for _, id := range render.TemplateIDs() {
		t.Run(id, func(t *testing.T) {
			doc, err := render.Build(id, inv, profile, render.Options{})
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			out := render.HTML(doc)
			for _, want := range wantSubstrings {
				if id == "modern" || id == "minimal" {
					// compact-date templates use the numeric form
					if want == "15 mars 2025" {
						want = "15/03/2025"
					}
				}
				if !strings.Contains(out, want) {
					t.Errorf("template %s: output missing %q", id, want)
				}
			}
			if !strings.Contains(out, doc.Accent) {
				t.Errorf("template %s: accent color %s not applied", id, doc.Accent)
			}
		})
	}
}

func TestBuildOmitsEmptySections(t *testing.T) {
	inv := fixtures.Invoice(
		fixtures.WithSignature(model.SignatureSettings{Mode: "none"}),
	)
	inv.Notes = ""
	profile := fixtures.CompanyProfile()

	doc, err := render.Build("corporate", inv, profile, render.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if doc.Signature != nil {
		t.Error("signature block present despite mode none")
	}
	if doc.Notes != "" {
		t.Error("notes present despite empty input")
	}

	out := render.HTML(doc)
	for _, absent := range []string{"signatures", "notes", "attachments"} {
		if strings.Contains(out, `class="`+absent+`"`) {
			t.Errorf("output contains empty section %q", absent)
		}
	}
}

func TestBuildAccentOverride(t *testing.T) {
	inv := fixtures.Invoice()
	profile := fixtures.CompanyProfile()

	doc, err := render.Build("classic", inv, profile, render.Options{AccentColor: "#ff8800"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if doc.Accent != "#ff8800" {
		t.Errorf("Accent = %q, want override", doc.Accent)
	}
	if !strings.Contains(render.HTML(doc), "#ff8800") {
		t.Error("override accent missing from output")
	}
}

func TestBuildEnglishLocale(t *testing.T) {
	inv := fixtures.Invoice()
	profile := fixtures.CompanyProfile()

	doc, err := render.Build("corporate", inv, profile, render.Options{Locale: "en"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out := render.HTML(doc)
	for _, want := range []string{"INVOICE", "Billed to", "March 15, 2025", "1 180.00 FCFA"} {
		if !strings.Contains(out, want) {
			t.Errorf("en output missing %q", want)
		}
	}
}

func TestBuildTaxAndDiscountLines(t *testing.T) {
	profile := fixtures.CompanyProfile()

	// zero rate, zero discount: subtotal and grand total only
	inv := fixtures.Invoice(fixtures.WithTaxRate("0"))
	doc, err := render.Build("minimal", inv, profile, render.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(doc.Totals) != 2 {
		t.Errorf("totals lines = %d, want 2", len(doc.Totals))
	}

	inv = fixtures.Invoice(fixtures.WithTaxRate("20"), fixtures.WithDiscount("50"))
	doc, err = render.Build("minimal", inv, profile, render.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(doc.Totals) != 4 {
		t.Errorf("totals lines = %d, want 4", len(doc.Totals))
	}
	last := doc.Totals[len(doc.Totals)-1]
	if !last.Emphasis {
		t.Error("grand total line not emphasized")
	}
	if last.Value != "1 150,00 FCFA" {
		t.Errorf("grand total = %q, want %q", last.Value, "1 150,00 FCFA")
	}
}
