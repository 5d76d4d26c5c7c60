package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// Names of everything the application keeps in the cookie session.
const (
	sessKeyUserID   = "uid"
	sessKeyOwnerID  = "ownerid"
	sessKeyPersist  = "persist"      // remember-me flag, drives the cookie MaxAge
	sessKeySetupUID = "pw_setup_uid" // password-setup gate: user id
	sessKeySetupExp = "pw_setup_exp" // password-setup gate: expiry, unix seconds
)

// rememberMeMaxAge keeps the cookie for a year when the user ticks
// "rester connecté".
const rememberMeMaxAge = 60 * 60 * 24 * 365

// SessionWriter wraps the gorilla session so the cookie options (MaxAge,
// Secure, Domain, SameSite) are reapplied on every save. Saving a flash
// must not downgrade a persistent remember-me cookie to a browser-session
// one.
type SessionWriter struct {
	sess *sessions.Session
	c    echo.Context
}

// LoadSession retrieves the "session" cookie session from the Echo
// context. An undecodable cookie (rotated secret, tampered value) counts
// as no session; the next Save overwrites it.
func LoadSession(c echo.Context) (*SessionWriter, error) {
	sess, err := session.Get("session", c)
	if err != nil {
		if !isRecoverableSessionError(err) {
			return nil, err
		}
		log.Printf("invalid session cookie, starting fresh: %v", err)
	}
	return &SessionWriter{sess: sess, c: c}, nil
}

// SignIn establishes the signed-in session. Accounts are single-tenant,
// the user is its own owner. remember drives the cookie lifetime applied
// by Save.
func (sw *SessionWriter) SignIn(userID uint, remember bool) {
	sw.sess.Values[sessKeyUserID] = userID
	sw.sess.Values[sessKeyOwnerID] = userID
	sw.sess.Values[sessKeyPersist] = remember
}

// UserID returns the signed-in user id, or false when nobody is signed in.
func (sw *SessionWriter) UserID() (uint, bool) {
	id, ok := sw.sess.Values[sessKeyUserID].(uint)
	return id, ok && id != 0
}

// OwnerID returns the account scope of the signed-in user.
func (sw *SessionWriter) OwnerID() (uint, bool) {
	id, ok := sw.sess.Values[sessKeyOwnerID].(uint)
	return id, ok && id != 0
}

// OpenPasswordGate lets a freshly verified user reach the set-password
// page for the given duration without being signed in yet.
func (sw *SessionWriter) OpenPasswordGate(userID uint, ttl time.Duration) {
	sw.sess.Values[sessKeySetupUID] = userID
	sw.sess.Values[sessKeySetupExp] = time.Now().Add(ttl).Unix()
}

// PasswordGateUser returns the user behind an open, unexpired password
// gate.
func (sw *SessionWriter) PasswordGateUser() (uint, bool) {
	id, okID := sw.sess.Values[sessKeySetupUID].(uint)
	exp, okExp := sw.sess.Values[sessKeySetupExp].(int64)
	if !okID || !okExp || time.Now().Unix() > exp {
		return 0, false
	}
	return id, true
}

// ClosePasswordGate removes the gate once the password is set.
func (sw *SessionWriter) ClosePasswordGate() {
	delete(sw.sess.Values, sessKeySetupUID)
	delete(sw.sess.Values, sessKeySetupExp)
}

// Save persists the session, reapplying the cookie options derived from
// the remember-me flag and the environment.
func (sw *SessionWriter) Save() error {
	maxAge := 0
	if persist, _ := sw.sess.Values[sessKeyPersist].(bool); persist {
		maxAge = rememberMeMaxAge
	}

	// CookieCfgMiddleware puts the environment config into the context.
	cfg, ok := sw.c.Get("cookiecfg").(CookieCfg)
	if !ok {
		cfg = CookieCfg{}
	}
	sw.sess.Options = cookieOptions(maxAge, cfg)

	return sw.sess.Save(sw.c.Request(), sw.c.Response())
}

// isRecoverableSessionError reports whether session.Get failed on a
// cookie that can simply be replaced.
func isRecoverableSessionError(err error) bool {
	if err == nil {
		return false
	}
	var scErr securecookie.Error
	if errors.As(err, &scErr) {
		return true
	}
	return strings.Contains(err.Error(), "securecookie: the value is not valid")
}
