package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// The paged target flattens the document into absolutely positioned
// boxes on fixed-size pages. The publishing server consumes this XML
// and produces the PDF. Output is fully deterministic: identical
// documents yield byte-identical XML.

type pagedLayout struct {
	XMLName    xml.Name `xml:"InvoiceLayout"`
	XMLNS      string   `xml:"xmlns,attr"`
	Version    string   `xml:"version,attr"`
	Template   string   `xml:"template,attr"`
	Locale     string   `xml:"locale,attr"`
	Accent     string   `xml:"accent,attr"`
	Paper      string   `xml:"paper,attr"`
	PageWidth  float64  `xml:"pageWidthPt,attr"`
	PageHeight float64  `xml:"pageHeightPt,attr"`
	Font       string   `xml:"fontFamily"`
	Pages      []xmlPage
}

type xmlPage struct {
	XMLName xml.Name `xml:"page"`
	Number  int      `xml:"number,attr"`
	Boxes   []xmlBox `xml:"box"`
}

type xmlBox struct {
	Kind     string     `xml:"kind,attr"`
	XPt      float64    `xml:"xPt,attr"`
	YPt      float64    `xml:"yPt,attr"`
	WidthPt  float64    `xml:"widthPt,attr"`
	HeightPt float64    `xml:"heightPt,attr"`
	Fill     string     `xml:"fill,attr,omitempty"`
	Lines    []xmlLine  `xml:"line,omitempty"`
	Cells    []xmlCell  `xml:"cell,omitempty"`
	Image    *xmlImage  `xml:"image,omitempty"`
}

type xmlLine struct {
	Bold  bool   `xml:"bold,attr,omitempty"`
	Color string `xml:"color,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type xmlCell struct {
	Align string `xml:"align,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type xmlImage struct {
	Name string `xml:"name,attr"`
	Data string `xml:",chardata"`
}

const (
	pageMargin   = 40.0
	lineHeight   = 14.0
	rowHeight    = 18.0
	sectionGap   = 16.0
	headerHeight = 90.0
	imageHeight  = 120.0
	sigHeight    = 70.0
)

// pager places boxes top-down and opens a continuation page when the
// next box would cross the bottom margin.
type pager struct {
	paper  Paper
	pages  []xmlPage
	cursor float64
}

func newPager(paper Paper) *pager {
	p := &pager{paper: paper, cursor: pageMargin}
	p.pages = append(p.pages, xmlPage{Number: 1})
	return p
}

func (p *pager) place(box xmlBox) {
	if p.cursor+box.HeightPt > p.paper.HeightPt-pageMargin && p.cursor > pageMargin {
		p.pages = append(p.pages, xmlPage{Number: len(p.pages) + 1})
		p.cursor = pageMargin
	}
	box.XPt = pageMargin
	box.YPt = p.cursor
	if box.WidthPt == 0 {
		box.WidthPt = p.paper.WidthPt - 2*pageMargin
	}
	last := len(p.pages) - 1
	p.pages[last].Boxes = append(p.pages[last].Boxes, box)
	p.cursor += box.HeightPt + sectionGap
}

// Paged renders the document as the paginated layout XML.
func Paged(doc *Document) ([]byte, error) {
	p := newPager(doc.Paper)

	for _, section := range doc.Style.Sections {
		switch section {
		case SectionHeader:
			pagedHeader(p, doc)
		case SectionParties:
			pagedParties(p, doc)
		case SectionItems:
			pagedItems(p, doc)
		case SectionTotals:
			pagedTotals(p, doc)
		case SectionNotes:
			pagedNotes(p, doc)
		case SectionImages:
			pagedImages(p, doc)
		case SectionSignature:
			pagedSignature(p, doc)
		case SectionFooter:
			pagedFooter(p, doc)
		}
	}

	layout := pagedLayout{
		XMLNS:      "urn:facturio/ns/invoicelayout",
		Version:    "1.0",
		Template:   doc.TemplateID,
		Locale:     doc.Locale,
		Accent:     doc.Accent,
		Paper:      doc.Paper.Name,
		PageWidth:  doc.Paper.WidthPt,
		PageHeight: doc.Paper.HeightPt,
		Font:       doc.Style.FontFamily,
		Pages:      p.pages,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(layout); err != nil {
		return nil, fmt.Errorf("encode paged layout: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pagedHeader(p *pager, doc *Document) {
	box := xmlBox{Kind: "header", HeightPt: headerHeight}
	if doc.Style.Header == HeaderBanner {
		box.Fill = doc.Accent
	}
	box.Lines = append(box.Lines, xmlLine{Bold: true, Color: doc.Accent, Text: doc.Title})
	box.Lines = append(box.Lines, xmlLine{Bold: true, Text: doc.Number})
	box.Lines = append(box.Lines, xmlLine{Text: doc.DateLabel + ": " + doc.DateValue})
	if doc.DueDateValue != "" {
		box.Lines = append(box.Lines, xmlLine{Text: doc.DueDateLabel + ": " + doc.DueDateValue})
	}
	if doc.Logo != "" {
		box.Image = &xmlImage{Name: "logo", Data: doc.Logo}
	}
	p.place(box)
}

func partyLines(party Party) []xmlLine {
	lines := []xmlLine{
		{Bold: true, Text: party.Label},
		{Text: party.Name},
	}
	for _, s := range []string{party.Address, party.City, party.Phone, party.Email} {
		if s != "" {
			lines = append(lines, xmlLine{Text: s})
		}
	}
	return lines
}

func pagedParties(p *pager, doc *Document) {
	company := partyLines(doc.Company)
	client := partyLines(doc.Client)
	n := len(company)
	if len(client) > n {
		n = len(client)
	}

	half := (doc.Paper.WidthPt - 2*pageMargin) / 2
	height := float64(n) * lineHeight
	p.place(xmlBox{Kind: "party-company", WidthPt: half, HeightPt: height, Lines: company})
	// place the client block beside the company block, same band
	last := len(p.pages) - 1
	i := len(p.pages[last].Boxes) - 1
	clientBox := xmlBox{
		Kind:     "party-client",
		XPt:      pageMargin + half,
		YPt:      p.pages[last].Boxes[i].YPt,
		WidthPt:  half,
		HeightPt: height,
		Lines:    client,
	}
	p.pages[last].Boxes = append(p.pages[last].Boxes, clientBox)
}

func pagedItems(p *pager, doc *Document) {
	head := xmlBox{Kind: "table-head", HeightPt: rowHeight}
	if doc.Style.FilledTable {
		head.Fill = doc.Accent
	}
	for _, col := range doc.Columns {
		head.Cells = append(head.Cells, xmlCell{Text: col})
	}
	p.place(head)
	p.cursor -= sectionGap

	// rows paginate individually so a long table flows onto
	// continuation pages, repeating the head row there
	for _, row := range doc.Rows {
		if p.cursor+rowHeight > p.paper.HeightPt-pageMargin {
			p.pages = append(p.pages, xmlPage{Number: len(p.pages) + 1})
			p.cursor = pageMargin
			repeat := head
			repeat.XPt = 0
			repeat.YPt = 0
			p.place(repeat)
			p.cursor -= sectionGap
		}
		box := xmlBox{Kind: "table-row", HeightPt: rowHeight}
		box.Cells = append(box.Cells,
			xmlCell{Text: row.Description},
			xmlCell{Align: "right", Text: row.Quantity},
			xmlCell{Align: "right", Text: row.UnitPrice},
			xmlCell{Align: "right", Text: row.LineTotal},
		)
		p.place(box)
		p.cursor -= sectionGap // rows sit flush
	}
	p.cursor += sectionGap
}

func pagedTotals(p *pager, doc *Document) {
	for _, line := range doc.Totals {
		box := xmlBox{Kind: "total", HeightPt: rowHeight}
		if line.Emphasis {
			box.Kind = "grand-total"
			box.Fill = doc.Accent
		}
		box.Cells = append(box.Cells,
			xmlCell{Text: line.Label},
			xmlCell{Align: "right", Text: line.Value},
		)
		p.place(box)
		p.cursor -= sectionGap
	}
	p.cursor += sectionGap
}

func pagedNotes(p *pager, doc *Document) {
	if doc.Notes == "" {
		return
	}
	box := xmlBox{Kind: "notes", HeightPt: 3 * lineHeight}
	box.Lines = append(box.Lines,
		xmlLine{Bold: true, Text: doc.NotesLabel},
		xmlLine{Text: doc.Notes},
	)
	p.place(box)
}

func pagedImages(p *pager, doc *Document) {
	for i, img := range doc.Images {
		p.place(xmlBox{
			Kind:     "attachment",
			HeightPt: imageHeight,
			Image:    &xmlImage{Name: fmt.Sprintf("attachment-%d-%s", i+1, img.Name), Data: img.Data},
		})
	}
}

func pagedSignature(p *pager, doc *Document) {
	sig := doc.Signature
	if sig == nil {
		return
	}
	half := (doc.Paper.WidthPt - 2*pageMargin) / 2
	parties := []*SignatureParty{sig.Company, sig.Client}
	kinds := []string{"signature-company", "signature-client"}

	first := true
	var bandY float64
	for i, party := range parties {
		if party == nil {
			continue
		}
		lines := []xmlLine{}
		if party.Name != "" {
			lines = append(lines, xmlLine{Bold: true, Color: doc.Accent, Text: party.Name})
		} else {
			lines = append(lines, xmlLine{Text: "____________________"})
		}
		lines = append(lines, xmlLine{Text: party.Title})
		if sig.Mention != "" && kinds[i] == "signature-client" {
			lines = append(lines, xmlLine{Text: sig.Mention})
		}

		if first {
			p.place(xmlBox{Kind: kinds[i], WidthPt: half, HeightPt: sigHeight, Lines: lines})
			last := len(p.pages) - 1
			bandY = p.pages[last].Boxes[len(p.pages[last].Boxes)-1].YPt
			first = false
		} else {
			last := len(p.pages) - 1
			p.pages[last].Boxes = append(p.pages[last].Boxes, xmlBox{
				Kind:     kinds[i],
				XPt:      pageMargin + half,
				YPt:      bandY,
				WidthPt:  half,
				HeightPt: sigHeight,
				Lines:    lines,
			})
		}
	}
}

func pagedFooter(p *pager, doc *Document) {
	if len(doc.FooterLines) == 0 {
		return
	}
	// footer is pinned to the bottom of the current page
	height := float64(len(doc.FooterLines)) * lineHeight
	box := xmlBox{
		Kind:     "footer",
		XPt:      pageMargin,
		YPt:      doc.Paper.HeightPt - pageMargin - height,
		WidthPt:  doc.Paper.WidthPt - 2*pageMargin,
		HeightPt: height,
	}
	for _, line := range doc.FooterLines {
		box.Lines = append(box.Lines, xmlLine{Text: line})
	}
	last := len(p.pages) - 1
	p.pages[last].Boxes = append(p.pages[last].Boxes, box)
}
