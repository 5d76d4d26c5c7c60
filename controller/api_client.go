package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/facturio/facturio/model"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func clientToAPI(cl *model.Client) APIClient {
	return APIClient{
		ID:        cl.ID,
		Name:      cl.Name,
		Email:     cl.Email,
		Phone:     cl.Phone,
		Address:   cl.Address,
		City:      cl.City,
		Country:   cl.Country,
		CreatedAt: cl.CreatedAt,
		UpdatedAt: cl.UpdatedAt,
	}
}

// apiClientList handles GET /api/v1/clients, optionally filtered with ?q=
func (ctrl *controller) apiClientList(c echo.Context) error {
	ownerID := apiOwnerID(c)

	var clients []*model.Client
	var err error
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		clients, err = ctrl.model.FindClientsWithText(q, ownerID)
	} else {
		clients, err = ctrl.model.LoadAllClients(ownerID)
	}
	if err != nil {
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not load clients"))
	}

	items := make([]APIClient, len(clients))
	for i, cl := range clients {
		items[i] = clientToAPI(cl)
	}
	return respond(c, http.StatusOK, APIClientList{Items: items})
}

func (ctrl *controller) apiClientGet(c echo.Context) error {
	ownerID := apiOwnerID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}
	cl, err := ctrl.model.LoadClient(uint(id), ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respond(c, http.StatusNotFound, apiError("not_found", "client not found"))
		}
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not load client"))
	}

	c.Response().Header().Set("ETag",
		`W/"cli-`+strconv.FormatUint(uint64(cl.ID), 10)+
			`-`+strconv.FormatInt(cl.UpdatedAt.Unix(), 10)+`"`)

	return respond(c, http.StatusOK, clientToAPI(cl))
}

type apiClientPayload struct {
	Name    string `json:"name" xml:"name"`
	Email   string `json:"email" xml:"email"`
	Phone   string `json:"phone" xml:"phone"`
	Address string `json:"address" xml:"address"`
	City    string `json:"city" xml:"city"`
	Country string `json:"country" xml:"country"`
}

func (ctrl *controller) apiClientCreate(c echo.Context) error {
	ownerID := apiOwnerID(c)
	var p apiClientPayload
	if err := c.Bind(&p); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid payload"))
	}
	cl := &model.Client{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.TrimSpace(p.Email),
		Phone:   strings.TrimSpace(p.Phone),
		Address: strings.TrimSpace(p.Address),
		City:    strings.TrimSpace(p.City),
		Country: strings.TrimSpace(p.Country),
	}
	if cl.Name == "" {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "name is required"))
	}
	if err := ctrl.model.SaveClient(cl, ownerID); err != nil {
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not save client"))
	}
	return respond(c, http.StatusCreated, clientToAPI(cl))
}

func (ctrl *controller) apiClientUpdate(c echo.Context) error {
	ownerID := apiOwnerID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}
	cl, err := ctrl.model.LoadClient(uint(id), ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respond(c, http.StatusNotFound, apiError("not_found", "client not found"))
		}
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not load client"))
	}

	var p apiClientPayload
	if err := c.Bind(&p); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid payload"))
	}
	if strings.TrimSpace(p.Name) == "" {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "name is required"))
	}
	cl.Name = strings.TrimSpace(p.Name)
	cl.Email = strings.TrimSpace(p.Email)
	cl.Phone = strings.TrimSpace(p.Phone)
	cl.Address = strings.TrimSpace(p.Address)
	cl.City = strings.TrimSpace(p.City)
	cl.Country = strings.TrimSpace(p.Country)

	if err := ctrl.model.SaveClient(cl, ownerID); err != nil {
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not save client"))
	}
	return respond(c, http.StatusOK, clientToAPI(cl))
}

func (ctrl *controller) apiClientDelete(c echo.Context) error {
	ownerID := apiOwnerID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}
	if err := ctrl.model.DeleteClient(uint(id), ownerID); err != nil {
		return respond(c, http.StatusInternalServerError, apiError("db_error", "could not delete client"))
	}
	return c.NoContent(http.StatusNoContent)
}
