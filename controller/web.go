package controller

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/facturio/facturio/model"
	"github.com/facturio/facturio/render"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/xeonx/timeago"
)

type Flash struct {
	Kind    string // "success" | "error" | "warning" | "info"
	Message string
}

// FlashLoader drains the flashes from the session and puts them into
// the echo context for the views.
func FlashLoader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, _ := session.Get("session", c)
		raw := sess.Flashes()
		_ = sess.Save(c.Request(), c.Response())

		flashes := make([]Flash, 0, len(raw))
		for _, it := range raw {
			if f, ok := it.(Flash); ok {
				flashes = append(flashes, f)
			}
		}
		c.Set("flashes", flashes)
		return next(c)
	}
}

// AddFlash stores a flash message in the session.
func AddFlash(c echo.Context, kind, msg string) error {
	sess, _ := session.Get("session", c)
	sess.AddFlash(Flash{Kind: kind, Message: msg})
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return ErrInvalid(err, "Erreur lors de l'enregistrement de la session")
	}
	return nil
}

type appError struct {
	Code   string // stable internal error code for ops/support
	Status int    // matching HTTP status
	Err    error  // original error, never sent to the client
	Public string // safe text shown to the user (optional)
}

func (e *appError) Error() string { return fmt.Sprintf("%s: %v", e.Code, e.Err) }
func (e *appError) Unwrap() error { return e.Err }

func ErrNotFound(err error) *appError {
	return &appError{Code: "NOT_FOUND", Status: http.StatusNotFound, Err: err}
}
func ErrInvalid(err error, public string) *appError {
	return &appError{Code: "INVALID_INPUT", Status: http.StatusBadRequest, Err: err, Public: public}
}
func ErrInternal(err error) *appError {
	return &appError{Code: "INTERNAL", Status: http.StatusInternalServerError, Err: err}
}

var (
	timeagoFrench = timeago.NoMax(timeago.French)
)

// The Template interface implements rendering functionality for echo.
type Template struct {
	templates *template.Template
}

// Render is the echo way of rendering templates.
func (t *Template) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type controller struct {
	model   *model.Store
	exports *exportGuard
}

func (ctrl *controller) defaultResponseMap(c echo.Context, title string) map[string]any {
	responseMap := map[string]any{
		"title":    title,
		"loggedin": false,
		"path":     c.Request().URL.Path,
	}

	if flashes, ok := c.Get("flashes").([]Flash); ok {
		responseMap["flashes"] = flashes
	} else {
		responseMap["flashes"] = []Flash{}
	}

	if t := c.Get(middleware.DefaultCSRFConfig.ContextKey); t != nil {
		responseMap["CSRFToken"] = t.(string)
	}

	ownerID := c.Get("ownerid")
	userID := c.Get("uid")
	if ownerID == nil || userID == nil {
		return responseMap
	}
	responseMap["ownerid"] = ownerID
	responseMap["uid"] = userID.(uint)
	user, err := ctrl.model.GetUserByID(ownerID)
	if err != nil {
		c.Get("logger").(*slog.Logger).Warn("cannot get user by ID", "error", err)
		responseMap["uid"] = nil
		responseMap["ownerid"] = nil
		c.Set("uid", nil)
		c.Set("ownerid", nil)
		return responseMap
	}
	if user != nil {
		responseMap["email"] = user.Email
		responseMap["fullname"] = user.FullName
		responseMap["loggedin"] = true
	}

	items, err := ctrl.model.GetRecentItems(ownerID.(uint), 5)
	if err != nil {
		c.Get("logger").(*slog.Logger).Warn("cannot get recent items", "error", err)
	} else {
		responseMap["recentitems"] = items
	}
	return responseMap
}

func (ctrl *controller) root(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Tableau de bord")

	ownerID := c.Get("ownerid")
	userID := c.Get("uid")
	if ownerID == nil || userID == nil {
		return c.Render(http.StatusOK, "login.html", m)
	}

	counts, err := ctrl.model.CountInvoicesByStatus(ownerID.(uint))
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement du tableau de bord")
	}
	m["statuscounts"] = counts

	recents, _, err := ctrl.model.ListInvoices(ownerID.(uint), model.InvoiceListQuery{
		Limit: 10,
		Sort:  "created_desc",
	})
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement des factures récentes")
	}
	m["recentinvoices"] = recents

	clients, err := ctrl.model.LoadAllClients(ownerID.(uint))
	if err != nil {
		return ErrInvalid(err, "Erreur lors du chargement des clients")
	}
	if len(clients) == 0 {
		m["noclients"] = true
	}
	return c.Render(http.StatusOK, "main.html", m)
}

func (ctrl *controller) search(c echo.Context) error {
	ownerID := c.Get("ownerid").(uint)
	str := strings.TrimSpace(c.QueryParam("query"))
	if str == "" {
		return c.JSON(http.StatusOK, []any{})
	}
	if str[0] == '{' {
		var data map[string]any
		if err := json.Unmarshal([]byte(str), &data); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Errorf("cannot unmarshal search query: %w", err))
		}
		if q, ok := data["query"].(string); ok {
			str = q
		} else {
			return echo.NewHTTPError(http.StatusBadRequest, "Search query must contain a 'query' field")
		}
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query cannot be empty")
	}

	clients, err := ctrl.model.FindClientsWithText(str, ownerID)
	if err != nil {
		return ErrInvalid(err, "Erreur lors de la recherche des clients")
	}

	type searchResult struct {
		Text   string `json:"text"`
		Action string `json:"action"`
	}

	searchResults := make([]searchResult, 0, len(clients))
	for _, client := range clients {
		searchResults = append(searchResults, searchResult{
			Text:   client.Name,
			Action: fmt.Sprintf("/client/%d/%s", client.ID, url.PathEscape(client.Name)),
		})
	}
	return c.JSON(http.StatusOK, searchResults)
}

// NewController is the entry point of the web application.
func NewController(store *model.Store) error {
	// prod: JSON at info, dev: text at debug
	var logger *slog.Logger
	if store.Config.Mode == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
	gob.Register(Flash{})
	var templateFunc = template.FuncMap{
		"htmldate": func(in time.Time) string {
			return in.Format("2006-01-02")
		},
		"userdate": func(in time.Time) string {
			return render.FormatDateShort(in, "fr")
		},
		"longdate": func(in time.Time) string {
			return render.FormatDate(in, "fr")
		},
		"timeago": func(in time.Time) string {
			return timeagoFrench.Format(in)
		},
		"amount": func(in decimal.Decimal) string {
			return render.FormatAmount(in, "fr", "FCFA")
		},
		"rounddecimal": func(in decimal.Decimal) string {
			return in.Round(2).StringFixed(2)
		},
		"invoiceStatus": func(in model.InvoiceStatus) string {
			status := map[model.InvoiceStatus]string{
				model.InvoiceStatusDraft:     "Brouillon",
				model.InvoiceStatusPending:   "En attente",
				model.InvoiceStatusPaid:      "Payée",
				model.InvoiceStatusOverdue:   "En retard",
				model.InvoiceStatusCancelled: "Annulée",
			}
			if desc, ok := status[in]; ok {
				return desc
			}
			return "inconnu"
		},
		"templateName": func(in string) string {
			names := map[string]string{
				"corporate": "Corporate",
				"modern":    "Moderne",
				"classic":   "Classique",
				"bold":      "Audacieux",
				"minimal":   "Minimal",
				"elegance":  "Élégance",
			}
			if desc, ok := names[in]; ok {
				return desc
			}
			return in
		},
		"array": func(els ...any) []any {
			return els
		},
		"toJSON": func(v any) template.JS {
			b, _ := json.Marshal(v)
			return template.JS(b)
		},
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"nl2br": func(s string) template.HTML {
			esc := html.EscapeString(s)
			return template.HTML(strings.ReplaceAll(esc, "\n", "<br>"))
		},
		"raw": func(s string) template.HTML {
			return template.HTML(s)
		},
		"now":    time.Now,
		"before": func(a, b time.Time) bool { return a.Before(b) },
	}

	tmpl := &Template{
		templates: template.Must(template.New("t").Funcs(templateFunc).ParseGlob("public/views/*.html")),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.BodyLimit("20M"))
	e.Use(middleware.RequestID())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll:   false,
		DisablePrintStack: true,
	}))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()
			rid := res.Header().Get(echo.HeaderXRequestID)

			reqLogger := slog.With(
				"request_id", rid,
			).WithGroup("http").With(
				"method", req.Method,
				"path", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			c.Set("logger", reqLogger)

			err := next(c)

			if shouldSkipAccessLog(c) {
				return err
			}
			latency := time.Since(start)

			attrs := []any{
				"status", res.Status,
				"latency_ms", float64(latency.Microseconds()) / 1000.0,
			}

			switch {
			case res.Status >= 500:
				reqLogger.Error("http_request", attrs...)
			case res.Status >= 400:
				reqLogger.Warn("http_request", attrs...)
			default:
				reqLogger.Info("http_request", attrs...)
			}
			return err
		}
	})

	// log everything internally, send only a safe payload to clients
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		l, _ := c.Get("logger").(*slog.Logger)
		if l == nil {
			l = logger
		}

		var ae *appError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			// already one of ours
		case errors.As(err, &he):
			// 4xx messages pass through, 5xx get masked
			public := ""
			if he.Code >= 400 && he.Code < 500 {
				public = fmt.Sprint(he.Message)
			}
			ae = &appError{
				Code:   httpStatusToCode(he.Code),
				Status: he.Code,
				Err:    fmt.Errorf("%v", he.Message),
				Public: public,
			}
		case errors.Is(err, echo.ErrNotFound):
			ae = ErrNotFound(err)
		case errors.Is(err, echo.ErrMethodNotAllowed):
			ae = &appError{Code: "METHOD_NOT_ALLOWED", Status: http.StatusMethodNotAllowed, Err: err}
		default:
			ae = ErrInternal(err)
		}

		attrs := []any{
			"status", ae.Status,
			"code", ae.Code,
			"error", ae.Err.Error(),
		}
		if ae.Status >= 500 {
			l.Error("handler_error", attrs...)
		} else {
			l.Warn("handler_error", attrs...)
		}

		if wantsHTML(c.Request()) {
			kind := "error"
			if ae.Status >= 400 && ae.Status < 500 {
				kind = "warning"
			}
			if err = AddFlash(c, kind, userMessage(ae)); err != nil {
				l.Error("cannot add flash message", "error", err)
			}
			target := c.Request().Referer()
			if target == "" {
				target = "/"
			}
			_ = c.Redirect(http.StatusSeeOther, target)
			return
		}

		_ = c.JSON(ae.Status, map[string]any{
			"error":      userMessage(ae),
			"error_code": ae.Code,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		})
	}

	sessionStore := sessions.NewCookieStore([]byte(store.Config.CookieSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production behind HTTPS
	}
	e.Use(session.Middleware(sessionStore))
	e.Use(FlashLoader)
	if store.Config.Mode == "development" {
		// disable caching for static files
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if strings.HasPrefix(c.Request().URL.Path, "/static/") {
					res := c.Response().Header()
					res.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
					res.Set("Pragma", "no-cache")
					res.Set("Expires", "0")
				}
				return next(c)
			}
		})
	}
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLength:    32,
		TokenLookup:    "form:csrf,header:X-CSRF-Token",
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		// CookieSecure: true, // enable in production behind HTTPS
		Skipper: func(c echo.Context) bool {
			if c.Request().Method == http.MethodPost {
				if strings.HasPrefix(c.Path(), "/passwordreset") {
					return true
				}
				if strings.HasPrefix(c.Path(), "/login") {
					return true
				}
			}
			return false
		},
	}))

	e.Renderer = tmpl
	ctrl := controller{model: store, exports: newExportGuard()}
	e.Use(ctrl.CookieCfgMiddleware)
	e.GET("/", ctrl.root, ctrl.authMiddleware)
	e.GET("/search", ctrl.search, ctrl.authMiddleware)
	e.GET("/login", ctrl.login)
	e.POST("/login", ctrl.login)
	e.GET("/logout", ctrl.logout)
	e.GET("/register", ctrl.register)
	e.POST("/register", ctrl.register)
	e.GET("/verify", ctrl.verifyEmail)
	e.GET("/set-password", ctrl.showSetPasswordForm)
	e.POST("/set-password", ctrl.handleSetPasswordSubmit)
	e.GET("/passwordreset/:token", ctrl.showPasswordResetForm)
	e.POST("/passwordreset/:token", ctrl.handlePasswordResetSubmit)
	e.GET("/passwordreset", ctrl.showPasswordResetRequest)
	e.POST("/passwordreset", ctrl.handlePasswordResetRequest)

	e.Static("/static", "static")
	ctrl.invoiceInit(e)
	ctrl.clientInit(e)
	ctrl.companyInit(e)
	ctrl.apiInit(e)

	if err := e.Start(fmt.Sprintf(":%d", store.Config.Port)); err != nil {
		return fmt.Errorf("cannot start application %w", err)
	}
	return nil
}

func userMessage(ae *appError) string {
	if ae.Public != "" {
		return ae.Public
	}
	switch ae.Code {
	case "INVALID_INPUT":
		return "La saisie est invalide. Veuillez vérifier et réessayer."
	case "NOT_FOUND":
		return "La ressource demandée est introuvable."
	case "METHOD_NOT_ALLOWED":
		return "Cette méthode HTTP n'est pas prise en charge ici."
	default:
		return "Une erreur est survenue. Veuillez réessayer plus tard."
	}
}

func wantsHTML(r *http.Request) bool { return strings.Contains(r.Header.Get("Accept"), "text/html") }

func httpStatusToCode(status int) string {
	switch status {
	case 400:
		return "INVALID_INPUT"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 405:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= 500 {
			return "INTERNAL"
		}
		return "ERROR"
	}
}

func shouldSkipAccessLog(c echo.Context) bool {
	p := c.Request().URL.Path
	if strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/assets/") {
		return true
	}
	switch p {
	case "/favicon.ico", "/robots.txt":
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".css", ".js", ".map", ".png", ".jpg", ".jpeg", ".svg", ".ico", ".webp":
		return true
	}
	m := c.Request().Method
	if m == http.MethodHead || m == http.MethodOptions {
		return true
	}
	return false
}
