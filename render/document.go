// Package render turns an invoice and a company profile into a visual
// document. A template is a layout description interpreted by one
// renderer per target, not a hand-written renderer per template. The
// two targets are interactive HTML (screen) and a paginated layout fed
// to the publishing server (print).
package render

import "fmt"

// Target selects which medium a document is resolved for. The only
// difference between the two is the signature block: digital signatures
// show a name on screen and a blank line in print.
type Target int

const (
	TargetScreen Target = iota
	TargetPrint
)

// Options are the explicit rendering knobs. No ambient state: callers
// pass them on every build.
type Options struct {
	Locale      string // "fr" (default) or "en"
	AccentColor string // CSS color, falls back to the template's own accent
	PaperFormat string // "a4" (default), "letter" or "legal"
	Currency    string // suffix on amounts, default "FCFA"
	Target      Target
}

func (o *Options) fillDefaults() {
	if o.Locale == "" {
		o.Locale = "fr"
	}
	if o.PaperFormat == "" {
		o.PaperFormat = "a4"
	}
	if o.Currency == "" {
		o.Currency = "FCFA"
	}
}

// Party is one side of the invoice, fully formatted.
type Party struct {
	Label   string
	Name    string
	Address string
	City    string
	Phone   string
	Email   string
}

// Row is one formatted line of the items table.
type Row struct {
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

// TotalLine is one row of the totals block. Emphasis marks the grand
// total, which receives the accent color.
type TotalLine struct {
	Label    string
	Value    string
	Emphasis bool
}

// Image is an inlined attachment (base64 data URL).
type Image struct {
	Name string
	Data string
}

// SignatureParty is one signature slot in the signature block.
type SignatureParty struct {
	Title string // signer title printed under the line
	Name  string // digital name, empty means a blank manual line
}

// SignatureBlock is the resolved signature zone. Nil on the document
// means the zone is omitted entirely.
type SignatureBlock struct {
	Company *SignatureParty
	Client  *SignatureParty
	Mention string // printed approval mention, print target only
}

// Document is the render-ready result of Build: every value formatted
// and localized, every absent optional section nil or empty. Both
// targets consume it unchanged.
type Document struct {
	TemplateID string
	Style      Style
	Locale     string
	Accent     string
	Paper      Paper
	Currency   string

	Title  string
	Number string

	Company Party
	Client  Party
	Logo    string // data URL, empty omits the logo slot

	DateLabel    string
	DateValue    string
	DueDateLabel string
	DueDateValue string
	StatusLabel  string

	Columns []string
	Rows    []Row
	Totals  []TotalLine

	NotesLabel string
	Notes      string
	Images     []Image
	Signature  *SignatureBlock

	// Footer identifiers, already label-prefixed, empty entries omitted.
	FooterLines []string
}

// ErrUnknownTemplate is returned when a template id is not registered.
// Callers validate user input with IsValidTemplate first; hitting this
// error means a programming mistake upstream.
var ErrUnknownTemplate = fmt.Errorf("unknown template id")
