package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type createTokenReq struct {
	Name      string     `json:"name"`
	Scope     string     `json:"scope"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type createTokenResp struct {
	ID     uint   `json:"id"`
	Prefix string `json:"prefix"`
	Token  string `json:"token"` // shown exactly once
}

type apiTokenItem struct {
	ID         uint       `json:"id"`
	PublicID   string     `json:"public_id"`
	Prefix     string     `json:"prefix"`
	Name       string     `json:"name"`
	Scope      string     `json:"scope,omitempty"`
	Disabled   bool       `json:"disabled"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (ctrl *controller) apiCreateToken(c echo.Context) error {
	var req createTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError("bad_request", "invalid payload"))
	}
	ownerID := apiOwnerID(c)
	token, rec, err := ctrl.model.CreateAPIToken(ownerID, nil, req.Name, req.Scope, req.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiError("db_error", "could not create token"))
	}
	return c.JSON(http.StatusCreated, createTokenResp{
		ID: rec.ID, Prefix: rec.TokenPrefix, Token: token,
	})
}

func (ctrl *controller) apiListTokens(c echo.Context) error {
	ownerID := apiOwnerID(c)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, next, err := ctrl.model.ListAPITokensByOwner(ownerID, limit, c.QueryParam("cursor"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiError("db_error", "could not load tokens"))
	}
	items := make([]apiTokenItem, len(rows))
	for i, r := range rows {
		items[i] = apiTokenItem{
			ID:         r.ID,
			PublicID:   r.PublicID,
			Prefix:     r.TokenPrefix,
			Name:       r.Name,
			Scope:      r.Scope,
			Disabled:   r.Disabled,
			ExpiresAt:  r.ExpiresAt,
			LastUsedAt: r.LastUsedAt,
			CreatedAt:  r.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "next_cursor": next})
}

func (ctrl *controller) apiRevokeToken(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}
	if err := ctrl.model.RevokeAPIToken(apiOwnerID(c), uint(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, apiError("db_error", "could not revoke token"))
	}
	return c.NoContent(http.StatusNoContent)
}
