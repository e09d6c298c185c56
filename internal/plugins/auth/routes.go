package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes. Log-in and sign-up are
// public; account deletion lives on the guarded group.
//
// POST endpoints are rate-limited per IP so the frontend cannot be used to
// brute-force the API's credentials.
func RegisterRoutes(e *echo.Echo, guarded *echo.Group, h *Handler, rl config.RateLimitConfig) {
	limit := middleware.RateLimit(rl.RPS, rl.Burst)

	e.GET("/login", h.LogInForm)
	e.POST("/login", h.LogIn, limit)
	e.GET("/signup", h.SignUpForm)
	e.POST("/signup", h.SignUp, limit)
	e.POST("/logout", h.LogOut)

	guarded.GET("/account/delete", h.DeleteAccountForm)
	guarded.POST("/account/delete", h.DeleteAccount)
}
