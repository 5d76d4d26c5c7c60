package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/facturio/facturio/render"
)

func buildPaged(t *testing.T, opts render.Options) []byte {
	t.Helper()
	opts.Target = render.TargetPrint
	doc, err := render.Build("corporate", fixtures.Invoice(), fixtures.CompanyProfile(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out, err := render.Paged(doc)
	if err != nil {
		t.Fatalf("Paged failed: %v", err)
	}
	return out
}

func TestPagedPaperDimensions(t *testing.T) {
	tests := []struct {
		format string
		width  string
		height string
	}{
		{"a4", `pageWidthPt="595.28"`, `pageHeightPt="841.89"`},
		{"letter", `pageWidthPt="612"`, `pageHeightPt="792"`},
		{"legal", `pageWidthPt="612"`, `pageHeightPt="1008"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := string(buildPaged(t, render.Options{PaperFormat: tt.format}))
			if !strings.Contains(out, tt.width) {
				t.Errorf("output missing %s", tt.width)
			}
			if !strings.Contains(out, tt.height) {
				t.Errorf("output missing %s", tt.height)
			}
		})
	}
}

func TestPagedDeterministic(t *testing.T) {
	a := buildPaged(t, render.Options{})
	b := buildPaged(t, render.Options{})
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different layout XML")
	}
}

func TestPagedSinglePageContent(t *testing.T) {
	out := string(buildPaged(t, render.Options{}))

	for _, want := range []string{
		`template="corporate"`,
		`paper="a4"`,
		"FACTURE",
		"FAC-2025-0001",
		"Prestation A",
		"1 180,00 FCFA",
		`kind="grand-total"`,
		`kind="footer"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `number="2"`) {
		t.Error("short invoice spilled onto a second page")
	}
}

// A long table must flow onto continuation pages with the head row
// repeated.
func TestPagedOverflowContinues(t *testing.T) {
	items := make([]model.InvoiceItem, 60)
	for i := range items {
		items[i] = fixtures.Item("Ligne de prestation", 1, 1000)
	}
	inv := fixtures.Invoice(fixtures.WithItems(items...))

	doc, err := render.Build("corporate", inv, fixtures.CompanyProfile(), render.Options{Target: render.TargetPrint})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out, err := render.Paged(doc)
	if err != nil {
		t.Fatalf("Paged failed: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, `number="2"`) {
		t.Fatal("expected a continuation page")
	}
	if strings.Count(s, `kind="table-head"`) < 2 {
		t.Error("table head not repeated on the continuation page")
	}
	if got := strings.Count(s, `kind="table-row"`); got != 60 {
		t.Errorf("table rows = %d, want 60", got)
	}
}

// "both" resolves to a blank manual line in print even though the
// screen target shows the digital name.
func TestPagedSignatureBothMode(t *testing.T) {
	inv := fixtures.Invoice(fixtures.WithSignature(model.SignatureSettings{
		Mode:                 "both",
		ShowCompanySignature: true,
		ShowClientSignature:  true,
	}))

	doc, err := render.Build("corporate", inv, fixtures.CompanyProfile(), render.Options{Target: render.TargetPrint})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out, err := render.Paged(doc)
	if err != nil {
		t.Fatalf("Paged failed: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "____________________") {
		t.Error("print target missing the blank signing line")
	}
	if !strings.Contains(s, "Lu et approuvé") {
		t.Error("print target missing the approval mention")
	}
}
