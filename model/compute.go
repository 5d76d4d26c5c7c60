package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var commaperiod = strings.NewReplacer(",", ".")

// ParseAmount converts a user-entered numeric string into a decimal.
// Comma decimal separators are accepted. Anything that does not parse
// (including the empty string) is coerced to zero instead of returning
// an error: bad numeric input must never surface from the engine.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(commaperiod.Replace(s))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ComputeSubtotal sums quantity × unit price over all items.
// An empty slice yields zero.
func ComputeSubtotal(items []InvoiceItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return subtotal
}

// ComputeTax applies a percentage rate to the subtotal.
func ComputeTax(subtotal, taxRate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Div(hundred)
}

// ComputeTotal is subtotal + tax - discount. The result is deliberately
// not floored at zero: a discount larger than subtotal+tax produces a
// negative total, which callers must accept as-is.
func ComputeTotal(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Sub(discount)
}

// NextInvoiceNumber derives the next number in the FAC-YYYY-NNNN sequence
// from the most recently issued number for the given year. With no prior
// number the sequence starts at 0001. A malformed lastNumber never causes
// an error; the trailing segment simply counts as zero.
func NextInvoiceNumber(lastNumber string, year int) string {
	if lastNumber == "" {
		return fmt.Sprintf("FAC-%d-0001", year)
	}
	parts := strings.Split(lastNumber, "-")
	last, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || last < 0 {
		last = 0
	}
	return fmt.Sprintf("FAC-%d-%04d", year, last+1)
}
