package model_test

import (
	"testing"

	"github.com/facturio/facturio/fixtures"
	"github.com/facturio/facturio/model"
	"github.com/shopspring/decimal"
)

func TestComputeSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []model.InvoiceItem
		want  string
	}{
		{
			name:  "no items",
			items: nil,
			want:  "0",
		},
		{
			name:  "single item",
			items: []model.InvoiceItem{fixtures.Item("Conseil", 1, 100)},
			want:  "100",
		},
		{
			name:  "multiple items",
			items: fixtures.SampleItems(),
			want:  "1000", // 2*500
		},
		{
			name: "fractional quantity",
			items: []model.InvoiceItem{
				fixtures.Item("Heures", 2.5, 10000),
				fixtures.Item("Forfait", 1, 500),
			},
			want: "25500",
		},
		{
			name:  "zero-priced item",
			items: []model.InvoiceItem{fixtures.Item("Offert", 3, 0)},
			want:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.ComputeSubtotal(tt.items)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ComputeSubtotal = %s, want %s", got, want)
			}
		})
	}
}

func TestComputeTax(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		rate     string
		want     string
	}{
		{"standard rate", "1000", "20", "200"},
		{"zero rate", "1000", "0", "0"},
		{"zero subtotal", "0", "18", "0"},
		{"fractional rate", "200", "7.5", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.ComputeTax(
				decimal.RequireFromString(tt.subtotal),
				decimal.RequireFromString(tt.rate),
			)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ComputeTax = %s, want %s", got, want)
			}
		})
	}
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		tax      string
		discount string
		want     string
	}{
		{"no discount", "1000", "200", "0", "1200"},
		{"partial discount", "1000", "200", "50", "1150"},
		{"discount exceeds total", "100", "0", "150", "-50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.ComputeTotal(
				decimal.RequireFromString(tt.subtotal),
				decimal.RequireFromString(tt.tax),
				decimal.RequireFromString(tt.discount),
			)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ComputeTotal = %s, want %s", got, want)
			}
		})
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		name string
		last string
		year int
		want string
	}{
		{"first of the year", "", 2025, "FAC-2025-0001"},
		{"increments last segment", "FAC-2025-0041", 2025, "FAC-2025-0042"},
		{"year rollover restarts at last+1 of new year", "FAC-2024-0099", 2025, "FAC-2025-0100"},
		{"malformed trailing segment", "FAC-2025-XYZ", 2025, "FAC-2025-0001"},
		{"no separators at all", "garbage", 2025, "FAC-2025-0001"},
		{"four digit overflow keeps counting", "FAC-2025-9999", 2025, "FAC-2025-10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.NextInvoiceNumber(tt.last, tt.year)
			if got != tt.want {
				t.Errorf("NextInvoiceNumber(%q, %d) = %q, want %q", tt.last, tt.year, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{" 42 ", "42"},
		{"", "0"},
		{"abc", "0"},
		{"-10", "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := model.ParseAmount(tt.in)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

// The chain subtotal -> tax -> total must be stable under recomputation and
// produce the documented reference result.
func TestRecomputeTotalsEndToEnd(t *testing.T) {
	inv := fixtures.Invoice(
		fixtures.WithItems(
			fixtures.Item("Prestation A", 1, 500),
			fixtures.Item("Prestation B", 1, 500),
		),
		fixtures.WithTaxRate("20"),
		fixtures.WithDiscount("50"),
	)

	if !inv.Subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Subtotal = %s, want 1000", inv.Subtotal)
	}
	if !inv.Tax.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Tax = %s, want 200", inv.Tax)
	}
	if !inv.Total.Equal(decimal.NewFromInt(1150)) {
		t.Errorf("Total = %s, want 1150", inv.Total)
	}

	// Idempotent: recomputing changes nothing.
	before := inv.Total
	inv.RecomputeTotals()
	if !inv.Total.Equal(before) {
		t.Errorf("Total changed on recompute: %s -> %s", before, inv.Total)
	}
}
