package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/requestid"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var fromCtx string
	h := RequestID()(func(c echo.Context) error {
		fromCtx = requestid.From(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id := rec.Header().Get(requestid.Header)
	if id == "" {
		t.Fatal("expected response header to carry a request ID")
	}
	if fromCtx != id || GetRequestID(c) != id {
		t.Errorf("context ID %q and echo ID %q should match header %q", fromCtx, GetRequestID(c), id)
	}
}

func TestRequestID_KeepsInbound(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "abc-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if got := rec.Header().Get(requestid.Header); got != "abc-123" {
		t.Errorf("expected inbound ID to be kept, got %q", got)
	}
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a@b.co"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token"})
	c := e.NewContext(req, httptest.NewRecorder())

	err := CSRF()(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestCSRF_AcceptsMatchingFormField(t *testing.T) {
	e := echo.New()
	form := url.Values{"csrf_token": {"token"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := CSRF()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetCSRFToken(c) != "token" {
		t.Errorf("expected token in context, got %q", GetCSRFToken(c))
	}
}

func TestCSRF_IssuesCookieOnGet(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := CSRF()(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), csrfCookieName+"=") {
		t.Error("expected a CSRF cookie to be issued")
	}
	if len(GetCSRFToken(c)) != csrfTokenLength*2 {
		t.Errorf("unexpected token %q", GetCSRFToken(c))
	}
}

func TestCSRF_CookieIsHTTPOnly(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/students", nil), rec)

	if err := CSRF()(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Errorf("expected one HttpOnly CSRF cookie, got %+v", cookies)
	}
}

func TestCSRF_RejectsLogOutWithoutFormField(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("X-CSRF-Token", "token")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token"})
	c := e.NewContext(req, httptest.NewRecorder())

	err := CSRF()(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a header-only token, got %v", err)
	}
}

func TestCSRF_FreshCookieCannotAuthorizeSameRequest(t *testing.T) {
	e := echo.New()
	form := url.Values{"csrf_token": {"guess"}}
	req := httptest.NewRequest(http.MethodPost, "/students/add", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c := e.NewContext(req, httptest.NewRecorder())

	err := CSRF()(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a prior cookie, got %v", err)
	}
}

func TestIPLimiter_BurstThenDeny(t *testing.T) {
	l := newIPLimiter(0.001, 2)
	now := time.Now()

	if !l.get("10.0.0.1", now).Allow() || !l.get("10.0.0.1", now).Allow() {
		t.Fatal("expected the burst to be allowed")
	}
	if l.get("10.0.0.1", now).Allow() {
		t.Error("expected the third request to be denied")
	}
	if !l.get("10.0.0.2", now).Allow() {
		t.Error("other IPs must have their own bucket")
	}
}

func TestIPLimiter_SweepDropsIdle(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Now()
	l.get("10.0.0.1", now)
	l.sweep(now.Add(visitorIdle + time.Second))

	if len(l.entries) != 0 {
		t.Errorf("expected idle bucket to be swept, have %d", len(l.entries))
	}
}

func TestIPExtractor_OnlyTrustsKnownProxies(t *testing.T) {
	extract := buildIPExtractor([]string{"10.0.0.0/8", "not-a-cidr"})

	trusted := httptest.NewRequest(http.MethodGet, "/", nil)
	trusted.RemoteAddr = "10.1.2.3:4567"
	trusted.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	if got := extract(trusted); got != "203.0.113.9" {
		t.Errorf("expected forwarded client IP, got %q", got)
	}

	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.RemoteAddr = "198.51.100.7:1234"
	direct.Header.Set("X-Real-IP", "1.1.1.1")
	if got := extract(direct); got != "198.51.100.7" {
		t.Errorf("untrusted peer must not spoof its IP, got %q", got)
	}
}

func TestRedirect_HTMX(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/students/add", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Redirect(c, "/students"); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get("HX-Redirect") != "/students" || rec.Code != http.StatusOK {
		t.Errorf("expected HX-Redirect, got code %d headers %v", rec.Code, rec.Header())
	}
}

func TestRedirect_Plain(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/students/add", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Redirect(c, "/students"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/students" {
		t.Errorf("expected 303 to /students, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
