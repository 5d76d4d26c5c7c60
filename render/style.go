package render

// Section identifies one block of the document. Templates differ in
// section order and styling, never in rendering code.
type Section string

const (
	SectionHeader    Section = "header"
	SectionParties   Section = "parties"
	SectionItems     Section = "items"
	SectionTotals    Section = "totals"
	SectionNotes     Section = "notes"
	SectionImages    Section = "images"
	SectionSignature Section = "signature"
	SectionFooter    Section = "footer"
)

// HeaderLayout selects how the top block arranges logo, title and
// number.
type HeaderLayout string

const (
	HeaderBanner   HeaderLayout = "banner"   // full-width accent band
	HeaderSplit    HeaderLayout = "split"    // logo left, title right
	HeaderCentered HeaderLayout = "centered" // stacked and centered
)

// Style is the parameterized layout description of one template. The
// renderers interpret it; adding a template means adding a Style, not
// code.
type Style struct {
	ID           string
	Accent       string // default accent, overridable via Options
	FontFamily   string
	Header       HeaderLayout
	Sections     []Section
	FilledTable  bool // accent-filled table header row
	ZebraRows    bool
	Rules        bool // horizontal rules between sections
	CompactDates bool // numeric dates instead of the long form
	UppercaseH   bool // uppercase section labels
}

var defaultSections = []Section{
	SectionHeader, SectionParties, SectionItems, SectionTotals,
	SectionNotes, SectionImages, SectionSignature, SectionFooter,
}

var styles = map[string]Style{
	"corporate": {
		ID:          "corporate",
		Accent:      "#1f4e79",
		FontFamily:  "Helvetica, Arial, sans-serif",
		Header:      HeaderBanner,
		Sections:    defaultSections,
		FilledTable: true,
		ZebraRows:   true,
	},
	"modern": {
		ID:           "modern",
		Accent:       "#0d9488",
		FontFamily:   "Helvetica, Arial, sans-serif",
		Header:       HeaderSplit,
		Sections:     defaultSections,
		FilledTable:  true,
		CompactDates: true,
		UppercaseH:   true,
	},
	"classic": {
		ID:         "classic",
		Accent:     "#374151",
		FontFamily: "Georgia, 'Times New Roman', serif",
		Header:     HeaderCentered,
		Sections:   defaultSections,
		Rules:      true,
	},
	"bold": {
		ID:          "bold",
		Accent:      "#b91c1c",
		FontFamily:  "Helvetica, Arial, sans-serif",
		Header:      HeaderBanner,
		Sections:    defaultSections,
		FilledTable: true,
		UppercaseH:  true,
	},
	"minimal": {
		ID:           "minimal",
		Accent:       "#111827",
		FontFamily:   "Helvetica, Arial, sans-serif",
		Header:       HeaderSplit,
		Sections:     defaultSections,
		CompactDates: true,
	},
	"elegance": {
		ID:         "elegance",
		Accent:     "#7c3aed",
		FontFamily: "Georgia, 'Times New Roman', serif",
		Header:     HeaderCentered,
		Sections:   defaultSections,
		Rules:      true,
		ZebraRows:  true,
	},
}

// TemplateIDs lists the registered templates in display order.
func TemplateIDs() []string {
	return []string{"corporate", "modern", "classic", "bold", "minimal", "elegance"}
}

// IsValidTemplate reports whether id names a registered template.
// Handlers validate user input with this before calling Build.
func IsValidTemplate(id string) bool {
	_, ok := styles[id]
	return ok
}

// Paper is a physical page size. Points are what the publishing layout
// works in (1 pt = 1/72 inch).
type Paper struct {
	Name     string
	WidthMM  float64
	HeightMM float64
	WidthPt  float64
	HeightPt float64
}

var papers = map[string]Paper{
	"a4":     {Name: "a4", WidthMM: 210, HeightMM: 297, WidthPt: 595.28, HeightPt: 841.89},
	"letter": {Name: "letter", WidthMM: 215.9, HeightMM: 279.4, WidthPt: 612, HeightPt: 792},
	"legal":  {Name: "legal", WidthMM: 215.9, HeightMM: 355.6, WidthPt: 612, HeightPt: 1008},
}

// PaperByName resolves a paper format, defaulting to A4.
func PaperByName(name string) Paper {
	if p, ok := papers[name]; ok {
		return p
	}
	return papers["a4"]
}
