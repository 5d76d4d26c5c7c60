package render

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders the document as interactive markup for the browser
// preview. Pure string building, no template files: the document is
// already fully resolved.
func HTML(doc *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div class="invoice-document tpl-%s" style="font-family:%s">`,
		esc(doc.TemplateID), esc(doc.Style.FontFamily))

	for _, section := range doc.Style.Sections {
		switch section {
		case SectionHeader:
			htmlHeader(&b, doc)
		case SectionParties:
			htmlParties(&b, doc)
		case SectionItems:
			htmlItems(&b, doc)
		case SectionTotals:
			htmlTotals(&b, doc)
		case SectionNotes:
			htmlNotes(&b, doc)
		case SectionImages:
			htmlImages(&b, doc)
		case SectionSignature:
			htmlSignature(&b, doc)
		case SectionFooter:
			htmlFooter(&b, doc)
		}
		if doc.Style.Rules && section != SectionFooter {
			b.WriteString(`<hr class="section-rule">`)
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

func esc(s string) string { return html.EscapeString(s) }

func htmlHeader(b *strings.Builder, doc *Document) {
	fmt.Fprintf(b, `<header class="doc-header header-%s">`, doc.Style.Header)
	if doc.Style.Header == HeaderBanner {
		fmt.Fprintf(b, `<div class="banner" style="background:%s;color:#fff">`, esc(doc.Accent))
	} else {
		b.WriteString(`<div class="plain">`)
	}
	if doc.Logo != "" {
		fmt.Fprintf(b, `<img class="logo" src="%s" alt="">`, doc.Logo)
	}
	if doc.Style.Header == HeaderBanner {
		fmt.Fprintf(b, `<h1>%s</h1>`, esc(doc.Title))
	} else {
		fmt.Fprintf(b, `<h1 style="color:%s">%s</h1>`, esc(doc.Accent), esc(doc.Title))
	}
	fmt.Fprintf(b, `<div class="number" style="color:%s">%s</div>`,
		headerNumberColor(doc), esc(doc.Number))
	if doc.StatusLabel != "" {
		fmt.Fprintf(b, `<span class="status status-screen">%s</span>`, esc(doc.StatusLabel))
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(b, `<div class="meta"><span class="meta-label">%s</span> <span>%s</span>`,
		esc(doc.DateLabel), esc(doc.DateValue))
	if doc.DueDateValue != "" {
		fmt.Fprintf(b, ` <span class="meta-label">%s</span> <span>%s</span>`,
			esc(doc.DueDateLabel), esc(doc.DueDateValue))
	}
	b.WriteString(`</div></header>`)
}

func headerNumberColor(doc *Document) string {
	if doc.Style.Header == HeaderBanner {
		return "#fff"
	}
	return esc(doc.Accent)
}

func htmlParties(b *strings.Builder, doc *Document) {
	b.WriteString(`<section class="parties">`)
	for _, p := range []Party{doc.Company, doc.Client} {
		label := p.Label
		if doc.Style.UppercaseH {
			label = strings.ToUpper(label)
		}
		fmt.Fprintf(b, `<div class="party"><div class="party-label">%s</div><div class="party-name">%s</div>`,
			esc(label), esc(p.Name))
		if p.Address != "" {
			fmt.Fprintf(b, `<div>%s</div>`, esc(p.Address))
		}
		if p.City != "" {
			fmt.Fprintf(b, `<div>%s</div>`, esc(p.City))
		}
		if p.Phone != "" {
			fmt.Fprintf(b, `<div>%s</div>`, esc(p.Phone))
		}
		if p.Email != "" {
			fmt.Fprintf(b, `<div>%s</div>`, esc(p.Email))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</section>`)
}

func htmlItems(b *strings.Builder, doc *Document) {
	b.WriteString(`<table class="items"><thead><tr>`)
	for _, col := range doc.Columns {
		if doc.Style.UppercaseH {
			col = strings.ToUpper(col)
		}
		if doc.Style.FilledTable {
			fmt.Fprintf(b, `<th style="background:%s;color:#fff">%s</th>`, esc(doc.Accent), esc(col))
		} else {
			fmt.Fprintf(b, `<th style="border-bottom:2px solid %s">%s</th>`, esc(doc.Accent), esc(col))
		}
	}
	b.WriteString(`</tr></thead><tbody>`)
	for i, row := range doc.Rows {
		cls := ""
		if doc.Style.ZebraRows && i%2 == 1 {
			cls = ` class="zebra"`
		}
		fmt.Fprintf(b, `<tr%s><td>%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td></tr>`,
			cls, esc(row.Description), esc(row.Quantity), esc(row.UnitPrice), esc(row.LineTotal))
	}
	b.WriteString(`</tbody></table>`)
}

func htmlTotals(b *strings.Builder, doc *Document) {
	b.WriteString(`<section class="totals"><table>`)
	for _, line := range doc.Totals {
		if line.Emphasis {
			fmt.Fprintf(b, `<tr class="grand-total" style="background:%s;color:#fff"><td>%s</td><td class="num">%s</td></tr>`,
				esc(doc.Accent), esc(line.Label), esc(line.Value))
		} else {
			fmt.Fprintf(b, `<tr><td>%s</td><td class="num">%s</td></tr>`,
				esc(line.Label), esc(line.Value))
		}
	}
	b.WriteString(`</table></section>`)
}

func htmlNotes(b *strings.Builder, doc *Document) {
	if doc.Notes == "" {
		return
	}
	fmt.Fprintf(b, `<section class="notes"><div class="notes-label">%s</div><p>%s</p></section>`,
		esc(doc.NotesLabel), esc(doc.Notes))
}

func htmlImages(b *strings.Builder, doc *Document) {
	if len(doc.Images) == 0 {
		return
	}
	b.WriteString(`<section class="attachments">`)
	for _, img := range doc.Images {
		fmt.Fprintf(b, `<figure><img src="%s" alt="%s"></figure>`, img.Data, esc(img.Name))
	}
	b.WriteString(`</section>`)
}

func htmlSignature(b *strings.Builder, doc *Document) {
	sig := doc.Signature
	if sig == nil {
		return
	}
	b.WriteString(`<section class="signatures">`)
	for _, p := range []*SignatureParty{sig.Company, sig.Client} {
		if p == nil {
			continue
		}
		b.WriteString(`<div class="signature">`)
		if p.Name != "" {
			fmt.Fprintf(b, `<div class="signature-name" style="color:%s">%s</div>`, esc(doc.Accent), esc(p.Name))
		} else {
			b.WriteString(`<div class="signature-line"></div>`)
		}
		fmt.Fprintf(b, `<div class="signature-title">%s</div>`, esc(p.Title))
		b.WriteString(`</div>`)
	}
	if sig.Mention != "" {
		fmt.Fprintf(b, `<div class="signature-mention">%s</div>`, esc(sig.Mention))
	}
	b.WriteString(`</section>`)
}

func htmlFooter(b *strings.Builder, doc *Document) {
	if len(doc.FooterLines) == 0 {
		return
	}
	b.WriteString(`<footer class="doc-footer">`)
	for _, line := range doc.FooterLines {
		fmt.Fprintf(b, `<div>%s</div>`, esc(line))
	}
	b.WriteString(`</footer>`)
}
