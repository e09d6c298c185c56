package app

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/middleware"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/plugins/students"
	"github.com/keyxmakerx/studentdesk/internal/templates/layouts"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	middleware.LayoutInjector = injectLayout

	// --- Public Routes ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/students")
	})

	// Health check for container orchestration.
	e.GET("/healthz", a.healthz)

	// --- Plugin Routes ---

	// Every route on this group requires a session.
	guarded := e.Group("", auth.RequireSession())

	auth.RegisterRoutes(e, guarded, auth.NewHandler(a.API), a.Config.RateLimit)
	students.RegisterRoutes(guarded, students.NewHandler(a.API))
}

// healthz reports whether visitor storage is reachable.
func (a *App) healthz(c echo.Context) error {
	if p, ok := a.Storage.(Pinger); ok {
		if err := p.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// injectLayout copies the visitor's session and the request's CSRF token
// and ID into the Go context for templates.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
	ctx = layouts.SetRequestID(ctx, middleware.GetRequestID(c))

	if sess := auth.GetSession(c); sess != nil {
		ctx = layouts.SetIsAuthenticated(ctx, true)
		ctx = layouts.SetUserID(ctx, sess.UserID)
		ctx = layouts.SetUserName(ctx, sess.FullName())
		ctx = layouts.SetUserEmail(ctx, sess.Email)
	}
	return ctx
}
