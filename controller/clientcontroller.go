package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/facturio/facturio/model"

	"github.com/go-playground/form/v4"
	"github.com/labstack/echo/v4"
)

func (ctrl *controller) clientInit(e *echo.Echo) {
	g := e.Group("/client")
	g.Use(ctrl.authMiddleware)
	g.GET("/new", ctrl.clientNew)
	g.POST("/new", ctrl.clientNew)
	g.GET("/edit/:id", ctrl.clientEdit)
	g.POST("/edit/:id", ctrl.clientEdit)
	g.DELETE("/delete/:id", ctrl.clientDelete)
	g.GET("/:id/:name", ctrl.clientDetail)
	g.GET("/:id", ctrl.clientDetail)
	lg := e.Group("/clients", ctrl.authMiddleware)
	lg.GET("", ctrl.clientList)
}

type clientform struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Phone   string `form:"phone"`
	Address string `form:"address"`
	City    string `form:"city"`
	Country string `form:"country"`
}

func bindClient(c echo.Context) (*clientform, error) {
	var f clientform
	if err := c.Request().ParseForm(); err != nil {
		return nil, err
	}
	dec := form.NewDecoder()
	if err := dec.Decode(&f, c.Request().Form); err != nil {
		return nil, err
	}
	f.Name = strings.TrimSpace(f.Name)
	return &f, nil
}

func applyClientForm(dst *model.Client, f *clientform) {
	dst.Name = f.Name
	dst.Email = strings.TrimSpace(f.Email)
	dst.Phone = strings.TrimSpace(f.Phone)
	dst.Address = strings.TrimSpace(f.Address)
	dst.City = strings.TrimSpace(f.City)
	dst.Country = strings.TrimSpace(f.Country)
}

func (ctrl *controller) clientNew(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Nouveau client")
	switch c.Request().Method {
	case http.MethodGet:
		m["submit"] = "Créer le client"
		m["action"] = "/client/new"
		m["cancel"] = "/clients"
		m["client"] = model.Client{}
		return c.Render(http.StatusOK, "clientedit.html", m)
	case http.MethodPost:
		ownerID := c.Get("ownerid").(uint)
		f, err := bindClient(c)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des données du formulaire")
		}
		client := &model.Client{OwnerID: ownerID}
		applyClientForm(client, f)
		if err := ctrl.model.SaveClient(client, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors de l'enregistrement du client")
		}
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/client/%d", client.ID))
	}
	return fmt.Errorf("unknown method %s", c.Request().Method)
}

func (ctrl *controller) clientDetail(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Détails du client")
	ownerID := c.Get("ownerid").(uint)
	userID := c.Get("uid").(uint)

	client, err := ctrl.model.LoadClient(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger le client")
	}

	invoices, next, err := ctrl.model.ListInvoices(ownerID, model.InvoiceListQuery{
		ClientID: client.ID,
		Cursor:   c.QueryParam("cursor"),
	})
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement des factures du client")
	}

	_ = ctrl.model.TouchRecentView(userID, model.EntityClient, client.ID)

	m["title"] = client.Name
	m["client"] = client
	m["invoices"] = invoices
	m["nextcursor"] = next
	return c.Render(http.StatusOK, "clientdetail.html", m)
}

func (ctrl *controller) clientEdit(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Modifier le client")
	ownerID := c.Get("ownerid").(uint)
	client, err := ctrl.model.LoadClient(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger le client")
	}
	switch c.Request().Method {
	case http.MethodGet:
		m["title"] = "Modifier " + client.Name
		m["client"] = client
		m["action"] = fmt.Sprintf("/client/edit/%d", client.ID)
		m["cancel"] = fmt.Sprintf("/client/%d", client.ID)
		m["submit"] = "Enregistrer les modifications"
		return c.Render(http.StatusOK, "clientedit.html", m)
	case http.MethodPost:
		f, err := bindClient(c)
		if err != nil {
			return ErrInvalid(err, "Erreur lors du traitement des données du formulaire")
		}
		applyClientForm(client, f)
		if err := ctrl.model.SaveClient(client, ownerID); err != nil {
			return ErrInvalid(err, "Erreur lors de l'enregistrement du client")
		}
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/client/%d", client.ID))
	}
	return nil
}

// clientDelete removes the stored client record. Invoices keep their
// embedded snapshot and are not touched.
func (ctrl *controller) clientDelete(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	client, err := ctrl.model.LoadClient(c.Param("id"), ownerID)
	if err != nil {
		return ErrInvalid(err, "Impossible de charger le client")
	}
	if err := ctrl.model.DeleteClient(client.ID, ownerID); err != nil {
		return ErrInvalid(err, "Impossible de supprimer le client")
	}
	_ = AddFlash(c, "success", "Le client a été supprimé. Les factures existantes sont conservées.")
	return c.Redirect(http.StatusSeeOther, "/clients")
}

func (ctrl *controller) clientList(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)

	if search := strings.TrimSpace(c.QueryParam("q")); search != "" {
		clients, err := ctrl.model.FindClientsWithText(search, ownerID)
		if err != nil {
			return ErrInvalid(err, "Erreur lors de la recherche des clients")
		}
		if strings.Contains(c.Request().Header.Get("Accept"), "application/json") {
			return c.JSON(http.StatusOK, clients)
		}
		m := ctrl.defaultResponseMap(c, "Clients")
		m["clients"] = clients
		m["search"] = search
		return c.Render(http.StatusOK, "clientlist.html", m)
	}

	clients, err := ctrl.model.LoadAllClients(ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement des clients")
	}
	if strings.Contains(c.Request().Header.Get("Accept"), "application/json") {
		return c.JSON(http.StatusOK, clients)
	}
	m := ctrl.defaultResponseMap(c, "Clients")
	m["clients"] = clients
	return c.Render(http.StatusOK, "clientlist.html", m)
}
