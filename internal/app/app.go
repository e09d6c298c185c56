// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (visitor storage, session sealer, API
// client, Echo instance) and wires the plugins together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/middleware"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/storage"
	"github.com/keyxmakerx/studentdesk/internal/templates"
)

// Pinger is implemented by storage backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Storage hands out each visitor's client storage namespace.
	Storage storage.Scoper

	// Sealer seals stored session records.
	Sealer *session.Sealer

	// API is the anonymous Request Gateway client; handlers bind it to the
	// visitor's session per request.
	API *gateway.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, store storage.Scoper, api *gateway.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() keys the rate limiter, so only trust forwarding headers
	// from private networks.
	middleware.TrustedProxies(e, middleware.DefaultTrustedProxies)

	app := &App{
		Config:  cfg,
		Storage: store,
		Sealer:  session.NewSealer(cfg.Auth.SecretKey),
		API:     api,
		Echo:    e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler
	e.StaticFS("/static", templates.Static())

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (visitor) last.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request ID before logging so every log line carries it.
	a.Echo.Use(middleware.RequestID())

	a.Echo.Use(middleware.RequestLogger())

	a.Echo.Use(middleware.SecurityHeaders())

	// CSRF -- double-submit cookie pattern on all state-changing requests.
	a.Echo.Use(middleware.CSRF())

	// Visitor cookie and Session Store for every page, guarded or not.
	a.Echo.Use(auth.Visitor(a.Storage, a.Sealer, a.Config.Auth.SessionTTL))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to error pages. 401s send the visitor to the log-in page.
//
// For HTMX partial requests that hit errors, we set HX-Retarget and
// HX-Reswap headers so the error page replaces the full body instead of
// being swapped into a partial target.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	if code == http.StatusUnauthorized {
		_ = middleware.Redirect(c, "/login")
		return
	}

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	if err := middleware.Render(c, code, templates.Page("error", templates.ErrorView{Code: code, Message: message})); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusForbidden:
		return "You don't have permission to do that."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "The student service is unavailable. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting studentdesk server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("api", a.Config.API.BaseURL),
	)
	return a.Echo.Start(addr)
}

// Shutdown stops the server, letting in-flight requests finish until ctx ends.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
