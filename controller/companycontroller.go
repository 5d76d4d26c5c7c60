package controller

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/facturio/facturio/model"
	"github.com/facturio/facturio/render"

	"github.com/go-playground/form/v4"
	"github.com/labstack/echo/v4"
)

// companyform carries the issuing company profile shown on every invoice.
type companyform struct {
	Name    string `form:"name"`
	Address string `form:"address"`
	City    string `form:"city"`
	Country string `form:"country"`
	Phone   string `form:"phone"`
	Email   string `form:"email"`

	IFU      string `form:"ifu"`
	RCCM     string `form:"rccm"`
	TVA      string `form:"tva"`
	IBAN     string `form:"iban"`
	BIC      string `form:"bic"`
	BankName string `form:"bankname"`

	SignerTitle string `form:"signertitle"`

	Locale          string `form:"locale"`
	Currency        string `form:"currency"`
	DefaultTemplate string `form:"defaulttemplate"`
	AccentColor     string `form:"accentcolor"`
	PaperFormat     string `form:"paperformat"`

	RemoveLogo        bool `form:"removelogo"`
	RemoveHeaderImage bool `form:"removeheaderimage"`
	RemoveFooterImage bool `form:"removefooterimage"`
}

func (ctrl *controller) companyInit(e *echo.Echo) {
	g := e.Group("/settings")
	g.Use(ctrl.authMiddleware)
	g.GET("/company", ctrl.companyShow)
	g.POST("/company", ctrl.companySave)
	g.GET("/profile", ctrl.showProfile)
	g.POST("/profile", ctrl.updateProfile)
}

func (ctrl *controller) companyShow(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Mon entreprise")
	ownerID := c.Get("ownerid").(uint)
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}
	m["profile"] = profile
	m["templates"] = render.TemplateIDs()
	m["action"] = "/settings/company"
	m["submit"] = "Enregistrer"
	m["cancel"] = "/"
	return c.Render(http.StatusOK, "companyprofile.html", m)
}

func (ctrl *controller) companySave(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	profile, err := ctrl.model.LoadCompanyProfile(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du profil de l'entreprise")
	}

	var f companyform
	if err := c.Request().ParseForm(); err != nil {
		return ErrInvalid(err, "Erreur lors du traitement des données du formulaire")
	}
	dec := form.NewDecoder()
	if err := dec.Decode(&f, c.Request().Form); err != nil {
		return ErrInvalid(err, "Erreur lors du traitement des données du formulaire")
	}

	profile.OwnerID = ownerID
	profile.Name = strings.TrimSpace(f.Name)
	profile.Address = strings.TrimSpace(f.Address)
	profile.City = strings.TrimSpace(f.City)
	profile.Country = strings.TrimSpace(f.Country)
	profile.Phone = strings.TrimSpace(f.Phone)
	profile.Email = strings.TrimSpace(f.Email)
	profile.IFU = strings.TrimSpace(f.IFU)
	profile.RCCM = strings.TrimSpace(f.RCCM)
	profile.TVA = strings.TrimSpace(f.TVA)
	profile.IBAN = strings.TrimSpace(f.IBAN)
	profile.BIC = strings.TrimSpace(f.BIC)
	profile.BankName = strings.TrimSpace(f.BankName)
	profile.SignerTitle = strings.TrimSpace(f.SignerTitle)
	profile.AccentColor = strings.TrimSpace(f.AccentColor)

	if f.Locale == "fr" || f.Locale == "en" {
		profile.Locale = f.Locale
	}
	if f.Currency != "" {
		profile.Currency = strings.TrimSpace(f.Currency)
	}
	if render.IsValidTemplate(f.DefaultTemplate) {
		profile.DefaultTemplate = f.DefaultTemplate
	}
	switch strings.ToLower(f.PaperFormat) {
	case "a4", "letter", "legal":
		profile.PaperFormat = strings.ToLower(f.PaperFormat)
	}

	if f.RemoveLogo {
		profile.Logo = ""
	}
	if f.RemoveHeaderImage {
		profile.HeaderImage = ""
	}
	if f.RemoveFooterImage {
		profile.FooterImage = ""
	}
	if err := ctrl.applyProfileImages(c, profile); err != nil {
		return ErrInvalid(err, "Erreur lors du traitement des images")
	}

	if err := ctrl.model.SaveCompanyProfile(profile, ownerID); err != nil {
		return ErrInvalid(err, "Erreur lors de l'enregistrement du profil")
	}
	_ = AddFlash(c, "success", "Profil de l'entreprise enregistré.")
	return c.Redirect(http.StatusSeeOther, "/settings/company")
}

// applyProfileImages replaces logo, header, and footer images from the
// multipart upload fields of the same names. Stored as data URLs, same
// limits as invoice attachments.
func (ctrl *controller) applyProfileImages(c echo.Context, profile *model.CompanyProfile) error {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	set := func(field string, dst *string) error {
		files := mf.File[field]
		if len(files) == 0 {
			return nil
		}
		data, err := encodeProfileImage(files[0])
		if err != nil {
			return err
		}
		*dst = data
		return nil
	}
	if err := set("logo", &profile.Logo); err != nil {
		return err
	}
	if err := set("headerimage", &profile.HeaderImage); err != nil {
		return err
	}
	return set("footerimage", &profile.FooterImage)
}

func encodeProfileImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > model.MaxImageBytes {
		return "", model.ErrImageTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, model.MaxImageBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > model.MaxImageBytes {
		return "", model.ErrImageTooLarge
	}
	img, err := model.EncodeImage(fh.Filename, data)
	if err != nil {
		return "", err
	}
	return img.Data, nil
}

func (ctrl *controller) showProfile(c echo.Context) error {
	uid := c.Get("uid").(uint)
	u, err := ctrl.model.GetUserByID(uid)
	if err != nil || u == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load profile")
	}
	m := ctrl.defaultResponseMap(c, "Mon profil")
	m["user"] = u
	return c.Render(http.StatusOK, "profile.html", m)
}

func (ctrl *controller) updateProfile(c echo.Context) error {
	uid := c.Get("uid").(uint)
	u, err := ctrl.model.GetUserByID(uid)
	if err != nil || u == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load profile")
	}

	u.FullName = strings.TrimSpace(c.FormValue("fullname"))

	if err := ctrl.model.UpdateUser(u); err != nil {
		_ = AddFlash(c, "error", "Impossible d'enregistrer les données.")
		return c.Redirect(http.StatusSeeOther, "/settings/profile")
	}
	_ = AddFlash(c, "success", "Profil enregistré.")
	return c.Redirect(http.StatusSeeOther, "/settings/profile")
}
