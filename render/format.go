package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a monetary value: thousands grouped with spaces,
// two decimals, comma decimal separator for fr and period for en, and
// the currency as a suffix. "1234567.5" fr FCFA -> "1 234 567,50 FCFA".
func FormatAmount(d decimal.Decimal, locale, currency string) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	if locale == "en" {
		sb.WriteByte('.')
	} else {
		sb.WriteByte(',')
	}
	sb.WriteString(fracPart)
	if currency != "" {
		sb.WriteByte(' ')
		sb.WriteString(currency)
	}
	return sb.String()
}

var monthsFR = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var monthsEN = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatDate renders the long localized date form: "15 mars 2025" for
// fr, "March 15, 2025" for en. The zero time renders as an empty string
// so absent dates omit their line.
func FormatDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	if locale == "en" {
		return fmt.Sprintf("%s %d, %d", monthsEN[t.Month()-1], t.Day(), t.Year())
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthsFR[t.Month()-1], t.Year())
}

// FormatDateShort renders the compact numeric form used by dense
// layouts: "15/03/2025" for fr, "03/15/2025" for en.
func FormatDateShort(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	if locale == "en" {
		return t.Format("01/02/2006")
	}
	return t.Format("02/01/2006")
}

// FormatQuantity renders a quantity without trailing zeros: "2", "2.5".
// The decimal separator follows the locale.
func FormatQuantity(d decimal.Decimal, locale string) string {
	s := d.String()
	if locale != "en" {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
