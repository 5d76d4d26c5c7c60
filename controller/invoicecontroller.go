package controller

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facturio/facturio/model"
	"github.com/facturio/facturio/render"

	"github.com/go-playground/form/v4"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

func (ctrl *controller) invoiceInit(e *echo.Echo) {
	g := e.Group("/invoice")
	g.Use(ctrl.authMiddleware)
	g.GET("/new", ctrl.invoiceNew)
	g.GET("/new/:clientid", ctrl.invoiceNew)
	g.POST("/new", ctrl.invoiceNew)
	g.GET("/detail/:id", ctrl.invoiceDetail)
	g.GET("/preview/:id", ctrl.invoicePreview)
	g.DELETE("/delete/:id", ctrl.invoiceDelete)
	g.POST("/duplicate/:id", ctrl.invoiceDuplicate)
	g.GET("/edit/:id", ctrl.invoiceEdit)
	g.POST("/edit/:id", ctrl.invoiceEdit)
	g.GET("/pdf/:id", ctrl.invoicePDF)
	g.GET("/einvoice/:id", ctrl.invoiceEInvoiceXML)
	g.POST("/status/:id", ctrl.invoiceStatusChange)
	g.GET("/preview-image/:id/:page", ctrl.invoicePreviewImage)
	g.POST("/import-lines", ctrl.invoiceImportLines)
	lg := e.Group("/invoices", ctrl.authMiddleware)
	lg.GET("", ctrl.invoiceList)
}

// invoiceline is one line of the edit form. Amounts arrive as free text
// and are coerced to zero when unparseable.
type invoiceline struct {
	Description string `form:"description"`
	Quantity    string `form:"quantity"`
	UnitPrice   string `form:"unitprice"`
}

type invoiceform struct {
	InvoiceID uint      `form:"invoiceid"`
	Number    string    `form:"number"`
	Date      time.Time `form:"date"`
	DueDate   time.Time `form:"duedate"`

	ClientID      uint   `form:"clientid"`
	ClientName    string `form:"clientname"`
	ClientEmail   string `form:"clientemail"`
	ClientPhone   string `form:"clientphone"`
	ClientAddress string `form:"clientaddress"`
	ClientCity    string `form:"clientcity"`
	ClientCountry string `form:"clientcountry"`

	TaxRate  string `form:"taxrate"`
	Discount string `form:"discount"`
	Notes    string `form:"notes"`

	SignatureMode        string `form:"signaturemode"`
	ShowCompanySignature bool   `form:"showcompanysignature"`
	ShowClientSignature  bool   `form:"showclientsignature"`
	CompanySignerTitle   string `form:"companysignertitle"`
	ClientSignerTitle    string `form:"clientsignertitle"`

	KeepImages []uint        `form:"keepimages"`
	Lines      []invoiceline `form:"lines"`
}

func bindInvoice(c echo.Context) (*model.Invoice, []uint, error) {
	ownerID := c.Get("ownerid").(uint)
	f := invoiceform{}
	dec := form.NewDecoder()
	dec.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return time.Parse("2006-01-02", vals[0])
	}, time.Time{})
	if err := c.Request().ParseForm(); err != nil {
		return nil, nil, err
	}
	if err := dec.Decode(&f, c.Request().Form); err != nil {
		return nil, nil, err
	}

	inv := &model.Invoice{
		OwnerID: ownerID,
		Number:  strings.TrimSpace(f.Number),
		Date:    f.Date,
		DueDate: f.DueDate,
		Client: model.ClientSnapshot{
			ClientID: f.ClientID,
			Name:     strings.TrimSpace(f.ClientName),
			Email:    strings.TrimSpace(f.ClientEmail),
			Phone:    strings.TrimSpace(f.ClientPhone),
			Address:  strings.TrimSpace(f.ClientAddress),
			City:     strings.TrimSpace(f.ClientCity),
			Country:  strings.TrimSpace(f.ClientCountry),
		},
		TaxRate:  model.ParseAmount(f.TaxRate),
		Discount: model.ParseAmount(f.Discount),
		Notes:    f.Notes,
		Signature: model.SignatureSettings{
			Mode:                 f.SignatureMode,
			ShowCompanySignature: f.ShowCompanySignature,
			ShowClientSignature:  f.ShowClientSignature,
			CompanySignerTitle:   strings.TrimSpace(f.CompanySignerTitle),
			ClientSignerTitle:    strings.TrimSpace(f.ClientSignerTitle),
		},
	}
	inv.ID = f.InvoiceID

	pos := 0
	for _, line := range f.Lines {
		desc := strings.TrimSpace(line.Description)
		qty := model.ParseAmount(line.Quantity)
		price := model.ParseAmount(line.UnitPrice)
		if desc == "" && qty.IsZero() && price.IsZero() {
			continue
		}
		pos++
		inv.Items = append(inv.Items, model.InvoiceItem{
			OwnerID:     ownerID,
			Position:    pos,
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return inv, f.KeepImages, nil
}

// attachUploadedImages reads multipart uploads named "images" and appends
// them to the invoice, enforcing the per-invoice limit.
func attachUploadedImages(c echo.Context, inv *model.Invoice, ownerID uint) error {
	mf, err := c.MultipartForm()
	if err != nil {
		// plain form post without files
		return nil
	}
	files := mf.File["images"]
	for _, fh := range files {
		if len(inv.Images) >= model.MaxInvoiceImages {
			return model.ErrTooManyImages
		}
		img, err := readUploadedImage(fh)
		if err != nil {
			return err
		}
		img.OwnerID = ownerID
		img.Position = len(inv.Images) + 1
		inv.Images = append(inv.Images, img)
	}
	return nil
}

func readUploadedImage(fh *multipart.FileHeader) (model.InvoiceImage, error) {
	if fh.Size > model.MaxImageBytes {
		return model.InvoiceImage{}, model.ErrImageTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return model.InvoiceImage{}, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, model.MaxImageBytes+1))
	if err != nil {
		return model.InvoiceImage{}, err
	}
	if int64(len(data)) > model.MaxImageBytes {
		return model.InvoiceImage{}, model.ErrImageTooLarge
	}
	return model.EncodeImage(fh.Filename, data)
}

// keptImages filters the existing images of an invoice down to the ids
// the form asked to keep, renumbering positions.
func keptImages(existing []model.InvoiceImage, keep []uint) []model.InvoiceImage {
	keepset := make(map[uint]struct{}, len(keep))
	for _, id := range keep {
		keepset[id] = struct{}{}
	}
	out := make([]model.InvoiceImage, 0, len(existing))
	for _, img := range existing {
		if _, ok := keepset[img.ID]; ok {
			img.Position = len(out) + 1
			out = append(out, img)
		}
	}
	return out
}

// renderOptions combines the company defaults with per-request overrides
// from the query string.
func renderOptions(c echo.Context, profile *model.CompanyProfile, target render.Target) render.Options {
	opts := render.Options{
		Locale:      profile.Locale,
		AccentColor: profile.AccentColor,
		PaperFormat: profile.PaperFormat,
		Currency:    profile.Currency,
		Target:      target,
	}
	if v := c.QueryParam("locale"); v != "" {
		opts.Locale = v
	}
	if v := c.QueryParam("accent"); v != "" {
		opts.AccentColor = v
	}
	if v := c.QueryParam("paper"); v != "" {
		opts.PaperFormat = v
	}
	return opts
}

func (ctrl *controller) templateFor(c echo.Context, profile *model.CompanyProfile) string {
	if t := c.QueryParam("template"); t != "" && render.IsValidTemplate(t) {
		return t
	}
	if render.IsValidTemplate(profile.DefaultTemplate) {
		return profile.DefaultTemplate
	}
	return "corporate"
}

func (ctrl *controller) invoiceNew(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Nouvelle facture")
	ownerID := c.Get("ownerid").(uint)
	switch c.Request().Method {
	case http.MethodGet:
		profile, err := ctrl.model.LoadCompanyProfile(ownerID)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
		}

		now := time.Now()
		last, err := ctrl.model.LastInvoiceNumber(ownerID, now.Year())
		if err != nil {
			return ErrInvalid(err, "Erreur lors de la détermination du numéro de facture")
		}

		inv := model.Invoice{
			Number:  model.NextInvoiceNumber(last, now.Year()),
			Date:    now,
			DueDate: now.AddDate(0, 1, 0),
			Status:  model.InvoiceStatusDraft,
			Items:   []model.InvoiceItem{{Position: 1}},
			Signature: model.SignatureSettings{
				Mode:                 "manual",
				ShowCompanySignature: true,
				CompanySignerTitle:   profile.SignerTitle,
			},
		}

		if clientID := c.Param("clientid"); clientID != "" {
			client, err := ctrl.model.LoadClient(clientID, ownerID)
			if err != nil {
				return ErrInvalid(err, "Impossible de charger le client")
			}
			inv.Client = client.Snapshot()
		}

		clients, err := ctrl.model.LoadAllClients(ownerID)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du chargement des clients")
		}

		m["invoice"] = inv
		m["clients"] = clients
		m["profile"] = profile
		m["submit"] = "Créer la facture"
		m["action"] = "/invoice/new"
		m["cancel"] = "/invoices"
		return c.Render(http.StatusOK, "invoiceedit.html", m)

	case http.MethodPost:
		inv, _, err := bindInvoice(c)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des données saisies")
		}
		if err := attachUploadedImages(c, inv, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des images")
		}
		if err := ctrl.fillSnapshotFromClient(inv, ownerID); err != nil {
			return ErrInvalid(err, "Impossible de charger le client")
		}
		if err := ctrl.model.SaveInvoice(inv, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors de l'enregistrement de la facture")
		}
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/invoice/detail/%d", inv.ID))
	}
	return nil
}

// fillSnapshotFromClient completes an empty snapshot from the stored
// client record when only a client id was posted.
func (ctrl *controller) fillSnapshotFromClient(inv *model.Invoice, ownerID uint) error {
	if inv.Client.ClientID == 0 || inv.Client.Name != "" {
		return nil
	}
	client, err := ctrl.model.LoadClient(inv.Client.ClientID, ownerID)
	if err != nil {
		return err
	}
	inv.Client = client.Snapshot()
	return nil
}

func (ctrl *controller) invoiceEdit(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Modifier la facture")
	ownerID := c.Get("ownerid").(uint)
	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	switch c.Request().Method {
	case http.MethodGet:
		clients, err := ctrl.model.LoadAllClients(ownerID)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du chargement des clients")
		}
		m["title"] = "Facture " + inv.Number
		m["invoice"] = inv
		m["clients"] = clients
		m["submit"] = "Enregistrer la facture"
		m["action"] = "/invoice/edit/" + c.Param("id")
		m["cancel"] = "/invoice/detail/" + c.Param("id")
		return c.Render(http.StatusOK, "invoiceedit.html", m)

	case http.MethodPost:
		updated, keep, err := bindInvoice(c)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des données saisies")
		}
		updated.ID = inv.ID
		updated.Status = inv.Status
		updated.Images = keptImages(inv.Images, keep)
		if err := attachUploadedImages(c, updated, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des images")
		}
		if err := ctrl.fillSnapshotFromClient(updated, ownerID); err != nil {
			return ErrInvalid(err, "Impossible de charger le client")
		}
		if err := ctrl.model.SaveInvoice(updated, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors de l'enregistrement de la facture")
		}
		return c.Redirect(http.StatusSeeOther, "/invoice/detail/"+c.Param("id"))
	}
	return nil
}

func (ctrl *controller) invoiceDetail(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Détails de la facture")
	ownerID := c.Get("ownerid").(uint)
	userID := c.Get("uid").(uint)

	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}

	_ = ctrl.model.TouchRecentView(userID, model.EntityInvoice, inv.ID)

	templateID := ctrl.templateFor(c, profile)
	doc, err := render.Build(templateID, inv, profile, renderOptions(c, profile, render.TargetScreen))
	if err != nil {
		return ErrInvalid(err, "Modèle de facture inconnu")
	}

	problems := ctrl.model.VerifyInvoice(inv, profile)

	m["title"] = "Facture " + inv.Number
	m["invoice"] = inv
	m["profile"] = profile
	m["problems"] = problems
	m["templateid"] = templateID
	m["templates"] = render.TemplateIDs()
	m["preview"] = template.HTML(render.HTML(doc))
	return c.Render(http.StatusOK, "invoicedetail.html", m)
}

// invoicePreview returns the rendered document as a bare HTML fragment.
// The detail page swaps it in when the user switches template, paper,
// accent color, or locale.
func (ctrl *controller) invoicePreview(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}
	doc, err := render.Build(ctrl.templateFor(c, profile), inv, profile, renderOptions(c, profile, render.TargetScreen))
	if err != nil {
		return ErrInvalid(err, "Modèle de facture inconnu")
	}
	return c.HTML(http.StatusOK, render.HTML(doc))
}

func (ctrl *controller) invoiceDelete(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	if err := ctrl.model.DeleteInvoice(inv, ownerID); err != nil {
		return ErrInvalid(err, "Impossible de supprimer la facture")
	}
	_ = AddFlash(c, "success", "La facture a été supprimée.")
	return c.Redirect(http.StatusSeeOther, "/invoices")
}

func (ctrl *controller) invoiceDuplicate(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	dup, err := ctrl.model.DuplicateInvoice(id, ownerID, time.Now())
	if err != nil {
		return ErrInvalid(err, "Impossible de dupliquer la facture")
	}
	_ = AddFlash(c, "success", "Facture dupliquée sous le numéro "+dup.Number+".")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/invoice/edit/%d", dup.ID))
}

func parseID(s string) (uint, error) {
	id64, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id64 == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id64), nil
}

func (ctrl *controller) invoiceStatusChange(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	desired := strings.TrimSpace(c.FormValue("status"))
	if desired == "" {
		var payload struct {
			Status string `json:"status"`
		}
		if bindErr := c.Bind(&payload); bindErr == nil && payload.Status != "" {
			desired = payload.Status
		}
	}
	status := model.InvoiceStatus(strings.ToLower(desired))
	if !model.ValidInvoiceStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status value")
	}

	if err := ctrl.model.SetInvoiceStatus(id, ownerID, status); err != nil {
		slog.Error("invoice status change failed", "invoice_id", id, "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

// getXMLPathForInvoice returns the full path where the XML for the invoice is stored
func (ctrl *controller) getXMLPathForInvoice(inv *model.Invoice) string {
	ownerXMLPath := filepath.Join(ctrl.model.Config.XMLDir, fmt.Sprintf("owner%d", inv.OwnerID))
	_ = ensureDir(ownerXMLPath)
	return filepath.Join(ownerXMLPath, fmt.Sprintf("%d.xml", inv.ID))
}

// getPDFPathForInvoice returns the full path where the PDF for the invoice is stored
func (ctrl *controller) getPDFPathForInvoice(inv *model.Invoice) string {
	return filepath.Join(ctrl.model.Config.XMLDir, fmt.Sprintf("owner%d", inv.OwnerID), fmt.Sprintf("%d.pdf", inv.ID))
}

func ensureDir(dirName string) error {
	return os.MkdirAll(dirName, 0755)
}

func (ctrl *controller) invoicePDF(c echo.Context) error {
	logger := c.Get("logger").(*slog.Logger)
	ownerID := c.Get("ownerid").(uint)

	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}

	problems := ctrl.model.VerifyInvoice(inv, profile)
	if model.HasBlockingProblem(problems) {
		m := ctrl.defaultResponseMap(c, "Facture incomplète")
		m["title"] = "Facture " + inv.Number
		m["invoice"] = inv
		m["profile"] = profile
		m["problems"] = problems
		return c.Render(http.StatusOK, "invoicedetail.html", m)
	}

	pdfname := fmt.Sprintf("%s.pdf", inv.Number)
	pdfPath := ctrl.getPDFPathForInvoice(inv)

	// non-draft invoices re-use the file rendered at issue time
	if inv.Status != model.InvoiceStatusDraft {
		if _, err = os.Stat(pdfPath); err == nil {
			logger.Info("re-using existing invoice pdf", "invoice_id", inv.ID, "path", pdfPath)
			return c.Attachment(pdfPath, pdfname)
		}
		logger.Info("invoice pdf not found, re-creating", "invoice_id", inv.ID, "path", pdfPath)
	}

	if !ctrl.exports.tryAcquire(inv.ID) {
		return echo.NewHTTPError(http.StatusConflict, "Un export est déjà en cours pour cette facture")
	}
	defer ctrl.exports.release(inv.ID)

	doc, err := render.Build(ctrl.templateFor(c, profile), inv, profile, renderOptions(c, profile, render.TargetPrint))
	if err != nil {
		return ErrInvalid(err, "Modèle de facture inconnu")
	}
	layoutXML, err := render.Paged(doc)
	if err != nil {
		return ErrInvalid(err, "Erreur lors de la mise en page de la facture")
	}

	if err := ensureDir(filepath.Dir(pdfPath)); err != nil {
		return ErrInvalid(err, "Erreur lors de la création du répertoire d'export")
	}
	if err := ctrl.model.CreateInvoicePDF(inv, ownerID, layoutXML, pdfPath, logger); err != nil {
		return ErrInvalid(err, "Erreur lors de la génération du PDF")
	}
	return c.Attachment(pdfPath, pdfname)
}

func (ctrl *controller) invoiceEInvoiceXML(c echo.Context) error {
	logger := c.Get("logger").(*slog.Logger)
	ownerID := c.Get("ownerid").(uint)

	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}

	problems := ctrl.model.VerifyInvoice(inv, profile)
	if model.HasBlockingProblem(problems) {
		m := ctrl.defaultResponseMap(c, "Facture incomplète")
		m["title"] = "Facture " + inv.Number
		m["invoice"] = inv
		m["profile"] = profile
		m["problems"] = problems
		return c.Render(http.StatusOK, "invoicedetail.html", m)
	}

	outPath := ctrl.getXMLPathForInvoice(inv)
	userFilename := fmt.Sprintf("%s.xml", inv.Number)

	// non-draft invoices re-use the file written at issue time
	if inv.Status != model.InvoiceStatusDraft {
		if _, err = os.Stat(outPath); err == nil {
			logger.Info("re-using existing e-invoice xml", "invoice_id", inv.ID, "path", outPath)
			return c.Attachment(outPath, userFilename)
		}
		logger.Info("e-invoice xml not found, re-creating", "invoice_id", inv.ID, "path", outPath)
	}
	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return ErrInvalid(err, "Erreur lors de la création du répertoire d'export")
	}
	if err := ctrl.model.CreateEInvoiceXML(inv, ownerID, outPath); err != nil {
		return ErrInvalid(err, "Erreur lors de la création du XML")
	}
	return c.Attachment(outPath, userFilename)
}

// invoicePreviewImage serves a rasterized page of the exported PDF. Only
// available in cgo builds; others get a 501.
func (ctrl *controller) invoicePreviewImage(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	inv, err := ctrl.model.LoadInvoice(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger la facture")
	}
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid page number")
	}

	pdfPath := ctrl.getPDFPathForInvoice(inv)
	if _, err := os.Stat(pdfPath); err != nil {
		return ErrNotFound(fmt.Errorf("no rendered pdf for invoice %d", inv.ID))
	}

	previewDir := filepath.Join(ctrl.model.Config.XMLDir, fmt.Sprintf("owner%d", ownerID), "previews", fmt.Sprintf("%d", inv.ID))
	_, pngs, err := renderPDFToPNGs(pdfPath, previewDir, 110, page)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "PDF preview not available")
	}
	if page > len(pngs) {
		return ErrNotFound(fmt.Errorf("page %d out of range", page))
	}
	return c.File(pngs[page-1])
}

var invoiceStatusTitles = map[string]string{
	"":          "Toutes les factures",
	"draft":     "Brouillons",
	"pending":   "Factures en attente",
	"paid":      "Factures payées",
	"overdue":   "Factures en retard",
	"cancelled": "Factures annulées",
}

func (ctrl *controller) invoiceList(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	format := strings.ToLower(c.QueryParam("format"))

	q := model.InvoiceListQuery{
		Cursor: c.QueryParam("cursor"),
		Sort:   strings.ToLower(c.QueryParam("sort")),
	}
	status := strings.ToLower(c.QueryParam("status"))
	if model.ValidInvoiceStatus(model.InvoiceStatus(status)) {
		q.Status = model.InvoiceStatus(status)
	} else {
		status = ""
	}
	if cid := c.QueryParam("client_id"); cid != "" {
		if id, err := parseID(cid); err == nil {
			q.ClientID = id
		}
	}
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil {
		q.Limit = ps
	}

	title := invoiceStatusTitles[status]

	if format == "xlsx" {
		return ctrl.invoiceListXLSX(c, ownerID, q)
	}

	rows, next, err := ctrl.model.ListInvoices(ownerID, q)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement des factures")
	}

	if format == "json" || strings.Contains(c.Request().Header.Get("Accept"), "application/json") {
		type item struct {
			ID      uint                `json:"id"`
			Number  string              `json:"number"`
			Client  string              `json:"client"`
			Date    string              `json:"date"`
			DueDate string              `json:"due_date"`
			Status  model.InvoiceStatus `json:"status"`
			Total   string              `json:"total"`
		}
		out := make([]item, 0, len(rows))
		for _, r := range rows {
			out = append(out, item{
				ID:      r.ID,
				Number:  r.Number,
				Client:  r.Client.Name,
				Date:    r.Date.Format("2006-01-02"),
				DueDate: r.DueDate.Format("2006-01-02"),
				Status:  r.Status,
				Total:   r.Total.StringFixed(2),
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"items": out, "next_cursor": next,
		})
	}

	m := ctrl.defaultResponseMap(c, title)
	m["invoices"] = rows
	m["nextcursor"] = next
	m["status"] = status
	m["exportURL"] = currentExportURL(c, "xlsx")
	return c.Render(http.StatusOK, "invoicelist.html", m)
}

// currentExportURL rebuilds the current list URL with format switched,
// keeping the active filters and sorting.
func currentExportURL(c echo.Context, format string) string {
	u := *c.Request().URL
	q := u.Query()
	q.Set("format", format)
	q.Del("cursor")
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

// invoiceListXLSX streams all matching invoices as a spreadsheet,
// ignoring the pagination cursor.
func (ctrl *controller) invoiceListXLSX(c echo.Context, ownerID uint, q model.InvoiceListQuery) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Factures"
	f.SetSheetName("Sheet1", sheet)

	header := []any{"Numéro", "Client", "Date", "Échéance", "Statut", "Sous-total", "TVA", "Remise", "Total"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	q.Cursor = ""
	q.Limit = 200
	rowIdx := 2
	// cap the export, same order of magnitude as the UI will ever show
	const maxRows = 50_000
	for rowIdx-2 < maxRows {
		rows, next, err := ctrl.model.ListInvoices(ownerID, q)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du chargement des factures")
		}
		for _, r := range rows {
			cells := []any{
				r.Number,
				r.Client.Name,
				r.Date.Format("02/01/2006"),
				r.DueDate.Format("02/01/2006"),
				frenchStatusLabel(r.Status),
				r.Subtotal.StringFixed(2),
				r.Tax.StringFixed(2),
				r.Discount.StringFixed(2),
				r.Total.StringFixed(2),
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return err
			}
			rowIdx++
		}
		if next == "" {
			break
		}
		q.Cursor = next
	}

	filename := "factures_" + time.Now().Format("2006-01-02") + ".xlsx"
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	res.WriteHeader(http.StatusOK)
	return f.Write(res)
}

func frenchStatusLabel(s model.InvoiceStatus) string {
	switch s {
	case model.InvoiceStatusDraft:
		return "Brouillon"
	case model.InvoiceStatusPending:
		return "En attente"
	case model.InvoiceStatusPaid:
		return "Payée"
	case model.InvoiceStatusOverdue:
		return "En retard"
	case model.InvoiceStatusCancelled:
		return "Annulée"
	default:
		return string(s)
	}
}
