package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/middleware"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/storage"
)

// visitorCookieName identifies the browser; its value names the visitor's
// storage namespace.
const visitorCookieName = "studentdesk_visitor"

// Context keys for storing visitor data in Echo context. Other plugins use
// these keys via the exported getters below.
const (
	contextKeyStore   = "auth_store"
	contextKeySession = "auth_session"
)

// Visitor returns middleware that identifies the browser by its visitor
// cookie (issuing one when missing or malformed), builds the Session Store
// over that visitor's storage namespace and loads the current session.
func Visitor(scoper storage.Scoper, sealer *session.Sealer, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := visitorID(c)
			if id == "" {
				id = uuid.NewString()
				setVisitorCookie(c, id, ttl)
			}

			store := session.NewStore(scoper.Scope(id), sealer)
			c.Set(contextKeyStore, store)
			if sess := store.Current(c.Request().Context()); sess != nil {
				c.Set(contextKeySession, sess)
			}

			return next(c)
		}
	}
}

// RequireSession returns middleware that only lets visitors with a session
// through. Anyone else has the requested path remembered for after log-in
// and is redirected to /login. It runs on every request, so logging out
// revokes access immediately.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetSession(c) != nil {
				return next(c)
			}

			store := GetStore(c)
			if store == nil {
				return apperror.NewMissingContext()
			}

			path := c.Request().URL.RequestURI()
			if isRoutedPath(c) {
				if err := store.RememberEndpoint(c.Request().Context(), path); err != nil {
					// The from parameter still carries the path.
					slog.Warn("remembering endpoint failed", slog.String("path", path), slog.Any("error", err))
				}
			}

			return middleware.Redirect(c, "/login?from="+url.QueryEscape(path))
		}
	}
}

// --- Exported getters for other plugins ---

// GetStore returns the visitor's Session Store. Returns nil if Visitor was
// not applied.
func GetStore(c echo.Context) *session.Store {
	store, ok := c.Get(contextKeyStore).(*session.Store)
	if !ok {
		return nil
	}
	return store
}

// GetSession returns the visitor's session, or nil when not logged in.
func GetSession(c echo.Context) *session.Session {
	sess, ok := c.Get(contextKeySession).(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// --- Helpers ---

// visitorID returns the cookie's visitor ID, or "" when missing or not a UUID.
func visitorID(c echo.Context) string {
	cookie, err := c.Cookie(visitorCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// setVisitorCookie sets the visitor cookie. HttpOnly, Secure behind TLS and
// SameSite=Lax, living as long as the stored entries do.
func setVisitorCookie(c echo.Context, id string, ttl time.Duration) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// isRoutedPath reports whether the request matched a real route rather than
// the group's catch-all, so stray asset requests never replace the pending
// endpoint.
func isRoutedPath(c echo.Context) bool {
	p := c.Path()
	return p != "" && p != "/*"
}

// isLocalPath reports whether p is a path on this site, so post-login
// redirects cannot be pointed elsewhere. Browsers drop tabs and newlines
// from URLs, so any control character is refused before the prefix checks.
func isLocalPath(p string) bool {
	if strings.ContainsFunc(p, isControl) {
		return false
	}
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return !strings.HasPrefix(p, "/login") && !strings.HasPrefix(p, "/signup")
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
