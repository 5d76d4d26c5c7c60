package controller

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type APIError struct {
	Code    string `json:"code" xml:"code"`
	Message string `json:"message" xml:"message"`
}

func apiError(code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func wantsXML(c echo.Context) bool {
	if c.QueryParam("format") == "xml" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, "application/xml") || strings.Contains(accept, "text/xml")
}

func respond(c echo.Context, status int, v any) error {
	if wantsXML(c) {
		return c.XML(status, v)
	}
	return c.JSON(status, v)
}

// ---- Invoice DTOs ----

type APIInvoiceItem struct {
	ID          uint   `json:"id" xml:"id,attr"`
	Position    int    `json:"position" xml:"position"`
	Description string `json:"description" xml:"description"`
	Quantity    string `json:"quantity" xml:"quantity"`
	UnitPrice   string `json:"unit_price" xml:"unit_price"`
	LineTotal   string `json:"line_total" xml:"line_total"`
}

type APIInvoice struct {
	ID      uint      `json:"id" xml:"id,attr"`
	Number  string    `json:"number" xml:"number"`
	Status  string    `json:"status" xml:"status"`
	Date    time.Time `json:"date" xml:"date"`
	DueDate time.Time `json:"due_date" xml:"due_date"`

	ClientID      uint   `json:"client_id,omitempty" xml:"client_id,omitempty"`
	ClientName    string `json:"client_name" xml:"client_name"`
	ClientEmail   string `json:"client_email,omitempty" xml:"client_email,omitempty"`
	ClientCity    string `json:"client_city,omitempty" xml:"client_city,omitempty"`
	ClientCountry string `json:"client_country,omitempty" xml:"client_country,omitempty"`

	TaxRate  string `json:"tax_rate" xml:"tax_rate"`
	Discount string `json:"discount" xml:"discount"`
	Subtotal string `json:"subtotal" xml:"subtotal"`
	Tax      string `json:"tax" xml:"tax"`
	Total    string `json:"total" xml:"total"`
	Notes    string `json:"notes,omitempty" xml:"notes,omitempty"`

	Items []APIInvoiceItem `json:"items,omitempty" xml:"items>item,omitempty"`

	CreatedAt time.Time `json:"created_at" xml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" xml:"updated_at"`
}

type APIInvoiceList struct {
	XMLName    struct{}     `json:"-" xml:"invoices"`
	Items      []APIInvoice `json:"items" xml:"invoice"`
	NextCursor string       `json:"next_cursor,omitempty" xml:"next_cursor,omitempty"`
}

// ---- Client DTOs ----

type APIClient struct {
	ID      uint   `json:"id" xml:"id,attr"`
	Name    string `json:"name" xml:"name"`
	Email   string `json:"email,omitempty" xml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" xml:"phone,omitempty"`
	Address string `json:"address,omitempty" xml:"address,omitempty"`
	City    string `json:"city,omitempty" xml:"city,omitempty"`
	Country string `json:"country,omitempty" xml:"country,omitempty"`

	CreatedAt time.Time `json:"created_at" xml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" xml:"updated_at"`
}

type APIClientList struct {
	XMLName struct{}    `json:"-" xml:"clients"`
	Items   []APIClient `json:"items" xml:"client"`
}
