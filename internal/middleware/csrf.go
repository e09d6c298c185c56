package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// csrfTokenLength is the number of random bytes behind a token.
	csrfTokenLength = 32

	csrfCookieName = "studentdesk_csrf"

	// csrfFormField is the hidden input carried by the log-in and sign-up
	// forms, the student add/edit form, the delete modals and the dropdown's
	// log-out button.
	csrfFormField = "csrf_token"

	csrfContextKey = "csrf_token"
)

// CSRF guards every POST with a double-submit cookie. GET requests make sure
// the visitor holds a token so the page being rendered can embed it in its
// forms. A POST whose csrf_token field does not match the cookie is refused
// with 403.
//
// Pages receive the token server-side, so the cookie stays HttpOnly.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			token, err := ensureCSRFCookie(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue CSRF token")
			}
			c.Set(csrfContextKey, token)

			if isSafeMethod(req.Method) {
				return next(c)
			}

			submitted := req.FormValue(csrfFormField)
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}
			return next(c)
		}
	}
}

// ensureCSRFCookie returns the visitor's token, issuing a fresh cookie when
// the request carries none.
func ensureCSRFCookie(c echo.Context) (string, error) {
	req := c.Request()
	if cookie, err := req.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetCSRFToken returns the token the current page should put in the hidden
// csrf_token field of its forms.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get(csrfContextKey).(string); ok {
		return token
	}
	return ""
}
