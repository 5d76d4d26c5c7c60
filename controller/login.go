package controller

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CookieCfg controls how the session cookie is scoped and secured.
// NOTE: Options are applied centrally by SessionWriter.Save; this file
// only decides the remember-me flag.
type CookieCfg struct {
	IsProd       bool
	ShareSubdoms bool
	ParentDomain string
}

// cookieOptions builds secure cookie options based on environment.
func cookieOptions(maxAge int, cfg CookieCfg) *sessions.Options {
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.IsProd {
		opts.Secure = true
		if cfg.ShareSubdoms && cfg.ParentDomain != "" {
			opts.Domain = "." + cfg.ParentDomain
		}
	} else {
		opts.Secure = false
	}
	return opts
}

// authMiddleware ensures a user is authenticated before accessing protected routes.
// It reads uid/ownerid from the session; on failure it redirects to /login.
func (ctrl *controller) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sw, err := LoadSession(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, fmt.Errorf("cannot load session: %w", err))
		}

		uid, ok := sw.UserID()
		if !ok {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		ownerid, ok := sw.OwnerID()
		if !ok {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Set("uid", uid)
		c.Set("ownerid", ownerid)
		return next(c)
	}
}

// login handles GET (render form) and POST (authenticate).
// On successful POST, it stores uid/ownerid and the "persist" flag (remember me) in the session.
// The actual cookie MaxAge is applied automatically by SessionWriter.Save().
func (ctrl *controller) login(c echo.Context) error {
	if c.Request().Method == http.MethodGet {
		m := ctrl.defaultResponseMap(c, "Connexion")
		return c.Render(http.StatusOK, "login.html", m)
	}

	// POST
	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))
	password := c.FormValue("password")
	remember := c.FormValue("rememberMe") != ""

	// Authenticate (do not leak whether the user exists).
	user, err := ctrl.model.AuthenticateUser(email, password)
	if err != nil || user == nil {
		if err := AddFlash(c, "error", "Échec de la connexion. Veuillez vérifier votre saisie."); err != nil {
			return ErrInvalid(err, "Erreur lors de l'enregistrement de la session")
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if !user.Verified {
		_ = AddFlash(c, "info", "Veuillez d'abord confirmer votre adresse e-mail.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	// Save() applies the cookie options matching the remember-me choice.
	sw, err := LoadSession(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	sw.SignIn(user.ID, remember)

	if err := sw.Save(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	_ = ctrl.model.TouchLastLogin(user) // best-effort
	return c.Redirect(http.StatusSeeOther, "/")
}

// logout clears the session and deletes the cookie.
// We bypass SessionWriter here to force MaxAge = -1 (cookie deletion) regardless of "persist".
func (ctrl *controller) logout(c echo.Context) error {
	sess, err := session.Get("session", c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	delete(sess.Values, sessKeyUserID)
	delete(sess.Values, sessKeyOwnerID)
	delete(sess.Values, "csrf")
	delete(sess.Values, sessKeyPersist)

	// Force-delete the cookie for all browsers (including Safari).
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/"}
	}
	sess.Options.MaxAge = -1

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	_ = AddFlash(c, "success", "Vous avez été déconnecté.")
	return c.Redirect(http.StatusFound, "/login")
}

// generateRandomToken returns a URL-safe, base64 token and its sha256 hash.
// Use it for verification/signup tokens or password reset tokens.
func generateRandomToken() (token string, hash []byte, err error) {
	b := make([]byte, 32)
	if _, err = rand.Read(b); err != nil {
		return "", nil, err
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	return token, h[:], nil
}

// constantTimeMatchToken safely compares a provided plaintext token to a stored hash.
func constantTimeMatchToken(providedToken string, storedHash []byte) bool {
	sum := sha256.Sum256([]byte(providedToken))
	return len(storedHash) == len(sum[:]) && hmac.Equal(storedHash, sum[:])
}

// showPasswordResetRequest renders the "request password reset" form (GET).
func (ctrl *controller) showPasswordResetRequest(c echo.Context) error {
	m := ctrl.defaultResponseMap(c, "Mot de passe oublié")
	return c.Render(http.StatusOK, "passwordreset.html", m)
}

// handlePasswordResetRequest handles the reset request (POST) in an enumeration-safe way.
func (ctrl *controller) handlePasswordResetRequest(c echo.Context) error {
	logger := c.Get("logger").(*slog.Logger)
	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))

	genericResponse := func() error {
		_ = AddFlash(c, "info", "Si un compte existe, nous vous avons envoyé un e-mail.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	user, err := ctrl.model.GetUserByEMail(email)
	if err != nil || user == nil {
		return genericResponse()
	}

	token, _, err := generateRandomToken()
	if err != nil {
		logger.Error("cannot generate reset token", "error", err)
		return genericResponse()
	}

	if err := ctrl.model.SetPasswordResetToken(user, token, time.Now().UTC().Add(1*time.Hour)); err != nil {
		logger.Error("cannot store reset token", "error", err)
		return genericResponse()
	}

	resetURL := fmt.Sprintf("%s://%s/passwordreset/%s", c.Scheme(), c.Request().Host, url.PathEscape(token))

	body := fmt.Sprintf(
		"Cliquez sur le lien pour réinitialiser votre mot de passe :\n\n%s\n\nLe lien est valable 60 minutes.",
		resetURL,
	)
	_ = ctrl.sendEmail(email, "Réinitialisation de votre mot de passe", body)

	return genericResponse()
}

// showPasswordResetForm validates the token and renders the "set new password" form.
// If anything fails (invalid/expired), it redirects with a neutral error message.
func (ctrl *controller) showPasswordResetForm(c echo.Context) error {
	token := c.Param("token")

	user, err := ctrl.model.GetUserByResetToken(token)
	if err != nil || user == nil || !constantTimeMatchToken(token, user.PasswordResetToken) {
		_ = AddFlash(c, "error", "Le lien est invalide ou a expiré.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	m := ctrl.defaultResponseMap(c, "Nouveau mot de passe")
	m["token"] = token
	return c.Render(http.StatusOK, "passwordresettoken.html", m)
}

// handlePasswordResetSubmit sets the new password and clears the token.
// Always responds neutrally on failure to avoid leaks.
func (ctrl *controller) handlePasswordResetSubmit(c echo.Context) error {
	token := c.Param("token")
	pass := c.FormValue("newPassword")
	confirm := c.FormValue("confirmPassword")
	logger := c.Get("logger").(*slog.Logger)

	if pass == "" || pass != confirm {
		_ = AddFlash(c, "error", "Les mots de passe ne correspondent pas.")
		return c.Redirect(http.StatusSeeOther, c.Request().RequestURI)
	}

	user, err := ctrl.model.GetUserByResetToken(token)
	if err != nil || user == nil || !constantTimeMatchToken(token, user.PasswordResetToken) {
		_ = AddFlash(c, "error", "Le lien est invalide ou a expiré.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if err := ctrl.model.SetPassword(user, pass); err != nil {
		logger.Error("cannot set password", "error", err)
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer plus tard.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	if err := ctrl.model.UpdateUser(user); err != nil {
		logger.Error("cannot save password", "error", err)
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer plus tard.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	if err := ctrl.model.ClearPasswordResetToken(user); err != nil {
		logger.Error("cannot clear reset token", "error", err)
	}

	_ = AddFlash(c, "success", "Votre mot de passe a été mis à jour. Vous pouvez maintenant vous connecter.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// register handles GET (render form) and POST (start enumeration-safe signup).
// For POST: if email exists, send sign-in/reset mail; otherwise create a pending signup token.
func (ctrl *controller) register(c echo.Context) error {
	if !ctrl.model.Config.RegistrationAllowed {
		return echo.NewHTTPError(http.StatusForbidden, "Les inscriptions sont désactivées")
	}
	if c.Request().Method == http.MethodGet {
		m := ctrl.defaultResponseMap(c, "Inscription")
		return c.Render(http.StatusOK, "register.html", m)
	}

	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))
	password := c.FormValue("password")

	neutral := func() error {
		m := ctrl.defaultResponseMap(c, "Inscription")
		m["flash_success"] = "Si nous pouvons créer ou retrouver un compte pour cette adresse, un e-mail vous a été envoyé."
		return c.Render(http.StatusOK, "register_submitted.html", m)
	}

	existingUser, err := ctrl.model.GetUserByEMail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return neutral()
	}
	if existingUser != nil {
		body := "Quelqu'un a tenté de s'inscrire avec votre adresse e-mail. Si c'était vous, connectez-vous ou réinitialisez votre mot de passe."
		_ = ctrl.sendEmail(email, "Connexion à Facturio", body)
		return neutral()
	}

	signupToken, _, err := generateRandomToken()
	if err != nil {
		return neutral()
	}
	if _, err := ctrl.model.CreateSignupToken(email, password, 30*time.Minute, signupToken); err != nil {
		return neutral()
	}

	verifyURL := fmt.Sprintf("%s://%s/verify?token=%s", c.Scheme(), c.Request().Host, url.QueryEscape(signupToken))

	body := fmt.Sprintf(
		"Veuillez confirmer votre adresse e-mail pour Facturio :\n\n%s\n\nLe lien est valable 30 minutes. Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.",
		verifyURL,
	)
	_ = ctrl.sendEmail(email, "Confirmez votre adresse e-mail", body)

	return neutral()
}

// verifyEmail consumes the email verification token and opens a short-lived
// gate to /set-password. The short-lived gate is stored in the session; Save()
// applies cookie options automatically.
func (ctrl *controller) verifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		_ = AddFlash(c, "error", "Lien invalide ou expiré.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	u, err := ctrl.model.ConsumeSignupToken(token)
	if err != nil || u == nil {
		_ = AddFlash(c, "error", "Lien invalide ou expiré.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	sw, err := LoadSession(c)
	if err != nil {
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	// Short-lived gate to set the password.
	sw.OpenPasswordGate(u.ID, 15*time.Minute)

	if err := sw.Save(); err != nil {
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	return c.Redirect(http.StatusSeeOther, "/set-password")
}

// showSetPasswordForm renders the password setup page if the short-lived gate is valid.
func (ctrl *controller) showSetPasswordForm(c echo.Context) error {
	sw, err := LoadSession(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	uidVal, ok := sw.PasswordGateUser()
	if !ok {
		_ = AddFlash(c, "info", "Veuillez recommencer la procédure de vérification.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if _, err := ctrl.model.GetUserByID(uidVal); err != nil {
		_ = AddFlash(c, "info", "Veuillez recommencer la procédure de vérification.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	m := ctrl.defaultResponseMap(c, "Définir un mot de passe")
	return c.Render(http.StatusOK, "setpassword.html", m)
}

// handleSetPasswordSubmit accepts the new password, saves it, clears the gate,
// and logs the user in with a normal session.
func (ctrl *controller) handleSetPasswordSubmit(c echo.Context) error {
	pass := c.FormValue("password")
	confirm := c.FormValue("confirmPassword")

	if pass == "" || pass != confirm {
		_ = AddFlash(c, "error", "Les mots de passe ne correspondent pas.")
		return c.Redirect(http.StatusSeeOther, "/set-password")
	}

	sw, err := LoadSession(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	uidVal, ok := sw.PasswordGateUser()
	if !ok {
		_ = AddFlash(c, "info", "Votre session a expiré. Veuillez recommencer la vérification.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	u, err := ctrl.model.GetUserByID(uidVal)
	if err != nil || u == nil {
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if err := ctrl.model.SetPassword(u, pass); err != nil {
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer.")
		return c.Redirect(http.StatusSeeOther, "/set-password")
	}

	// Ensure the user is marked verified (idempotent).
	if !u.Verified {
		u.Verified = true
	}
	if err := ctrl.model.UpdateUser(u); err != nil {
		_ = AddFlash(c, "error", "Erreur interne. Veuillez réessayer.")
		return c.Redirect(http.StatusSeeOther, "/set-password")
	}

	// Swap the gate for a normal signed-in session.
	sw.ClosePasswordGate()
	sw.SignIn(u.ID, false)

	if err := sw.Save(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	_ = AddFlash(c, "success", "Votre mot de passe a été défini. Bienvenue !")
	_ = ctrl.model.TouchLastLogin(u)
	return c.Redirect(http.StatusSeeOther, "/")
}
