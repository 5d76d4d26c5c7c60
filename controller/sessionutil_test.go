package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

func runSessionHandler(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	store := sessions.NewCookieStore([]byte("secret-de-test"))
	if err := session.Middleware(store)(h)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestSessionWriterRememberMe(t *testing.T) {
	rec := runSessionHandler(t, func(c echo.Context) error {
		sw, err := LoadSession(c)
		if err != nil {
			return err
		}
		sw.SignIn(42, true)
		if uid, ok := sw.UserID(); !ok || uid != 42 {
			t.Errorf("UserID = %d, %v, want 42, true", uid, ok)
		}
		if oid, ok := sw.OwnerID(); !ok || oid != 42 {
			t.Errorf("OwnerID = %d, %v, want 42, true", oid, ok)
		}
		return sw.Save()
	})

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "Max-Age=31536000") {
		t.Errorf("remember-me cookie not persistent: %q", cookie)
	}
}

func TestSessionWriterBrowserSessionCookie(t *testing.T) {
	rec := runSessionHandler(t, func(c echo.Context) error {
		sw, err := LoadSession(c)
		if err != nil {
			return err
		}
		sw.SignIn(42, false)
		return sw.Save()
	})

	cookie := rec.Header().Get("Set-Cookie")
	if cookie == "" {
		t.Fatal("no session cookie written")
	}
	if strings.Contains(cookie, "Max-Age") {
		t.Errorf("session cookie must expire with the browser: %q", cookie)
	}
}

func TestSessionWriterPasswordGate(t *testing.T) {
	runSessionHandler(t, func(c echo.Context) error {
		sw, err := LoadSession(c)
		if err != nil {
			return err
		}

		if _, ok := sw.PasswordGateUser(); ok {
			t.Error("gate open before OpenPasswordGate")
		}

		sw.OpenPasswordGate(7, 15*time.Minute)
		if uid, ok := sw.PasswordGateUser(); !ok || uid != 7 {
			t.Errorf("gate user = %d, %v, want 7, true", uid, ok)
		}

		sw.ClosePasswordGate()
		if _, ok := sw.PasswordGateUser(); ok {
			t.Error("gate still open after close")
		}

		sw.OpenPasswordGate(7, -time.Minute)
		if _, ok := sw.PasswordGateUser(); ok {
			t.Error("expired gate accepted")
		}
		return nil
	})
}
