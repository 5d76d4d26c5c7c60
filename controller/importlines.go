package controller

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/facturio/facturio/model"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// importedLine is one invoice line parsed from an uploaded file. The
// in-page importer appends these to the edit form.
type importedLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type importLinesResponse struct {
	Version int            `json:"version"`
	Lines   []importedLine `json:"lines"`
}

// parseImportedLines detects CSV or XML from the extension, or from the
// content when the extension is missing.
func parseImportedLines(r io.Reader, ext string) ([]importedLine, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(ext) {
	case ".csv":
		return parseLinesCSV(all)
	case ".xml":
		return parseLinesXML(all)
	case "":
		if trim := bytes.TrimSpace(all); len(trim) > 0 && trim[0] == '<' {
			return parseLinesXML(all)
		}
		return parseLinesCSV(all)
	default:
		return nil, fmt.Errorf("extension non prise en charge : %s (utilisez .csv ou .xml)", ext)
	}
}

// parseLinesCSV reads rows of description;quantity;unit_price. The
// separator may be ';' or ',' and decimal commas are accepted.
func parseLinesCSV(data []byte) ([]importedLine, error) {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	sep := ';'
	if !bytes.ContainsRune(firstLine, ';') && bytes.ContainsRune(firstLine, ',') {
		sep = ','
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fichier CSV illisible : %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("le fichier CSV ne contient aucune ligne de données")
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	descIdx, ok1 := header["description"]
	qtyIdx, ok2 := header["quantity"]
	priceIdx, ok3 := header["unit_price"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("l'en-tête CSV doit contenir description, quantity et unit_price")
	}

	var out []importedLine
	for ri := 1; ri < len(rows); ri++ {
		rec := rows[ri]
		get := func(i int) string {
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get(descIdx) == "" && get(qtyIdx) == "" && get(priceIdx) == "" {
			continue
		}
		desc := get(descIdx)
		if desc == "" {
			return nil, fmt.Errorf("ligne %d : la description est obligatoire", ri+1)
		}
		out = append(out, importedLine{
			Description: desc,
			Quantity:    model.ParseAmount(get(qtyIdx)),
			UnitPrice:   model.ParseAmount(get(priceIdx)),
		})
	}
	return out, nil
}

type xmlImportDoc struct {
	XMLName xml.Name        `xml:"invoice"`
	Lines   []xmlImportLine `xml:"lines>line"`
}

type xmlImportLine struct {
	Description string `xml:"description"`
	Quantity    string `xml:"quantity"`
	UnitPrice   string `xml:"unit_price"`
}

func parseLinesXML(data []byte) ([]importedLine, error) {
	var doc xmlImportDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fichier XML illisible : %w", err)
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("le fichier XML ne contient aucune ligne")
	}
	out := make([]importedLine, 0, len(doc.Lines))
	for i, l := range doc.Lines {
		desc := strings.TrimSpace(l.Description)
		if desc == "" {
			return nil, fmt.Errorf("ligne %d : la description est obligatoire", i+1)
		}
		out = append(out, importedLine{
			Description: desc,
			Quantity:    model.ParseAmount(l.Quantity),
			UnitPrice:   model.ParseAmount(l.UnitPrice),
		})
	}
	return out, nil
}

// invoiceImportLines accepts multipart/form-data with field "file" and
// returns the parsed lines as JSON for the edit form to append.
func (ctrl *controller) invoiceImportLines(c echo.Context) error {
	file, header, err := c.Request().FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Aucun fichier reçu")
	}
	defer file.Close()

	lines, err := parseImportedLines(file, filepath.Ext(header.Filename))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, importLinesResponse{Version: 1, Lines: lines})
}
