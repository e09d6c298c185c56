package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/middleware"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/templates"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// homePath is where visitors land after log-in when nothing was pending.
const homePath = "/students"

// Handler handles HTTP requests for log-in, sign-up, log-out and account
// deletion. Handlers are thin: they bind the form, call the service, and
// either redirect or re-render the form.
type Handler struct {
	api *gateway.Client
}

// NewHandler creates a new auth handler. api is the anonymous client; each
// request binds it to the visitor's session.
func NewHandler(api *gateway.Client) *Handler {
	return &Handler{api: api}
}

// service returns the workflows bound to the visitor's session.
func (h *Handler) service(c echo.Context) AuthService {
	if store := GetStore(c); store != nil {
		return NewAuthService(h.api.WithTokens(store))
	}
	return NewAuthService(h.api)
}

// LogInForm renders the log-in page (GET /login).
func (h *Handler) LogInForm(c echo.Context) error {
	if GetSession(c) != nil {
		return c.Redirect(http.StatusSeeOther, homePath)
	}
	return render(c, "auth/login", LogInView{From: c.QueryParam("from")})
}

// LogIn processes the log-in form (POST /login).
func (h *Handler) LogIn(c echo.Context) error {
	var form validation.LogIn
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	view := LogInView{Form: form, From: c.FormValue("from")}
	view.Form.Password = ""

	sess, err := h.service(c).LogIn(c.Request().Context(), form)
	if err != nil {
		var verrs *validation.Errors
		switch {
		case errors.As(err, &verrs):
			view.Errors = verrs
		default:
			view.Banner = Message(err)
		}
		return render(c, "auth/login", view)
	}

	return h.commit(c, *sess, view.From)
}

// SignUpForm renders the sign-up page (GET /signup).
func (h *Handler) SignUpForm(c echo.Context) error {
	if GetSession(c) != nil {
		return c.Redirect(http.StatusSeeOther, homePath)
	}
	return render(c, "auth/signup", SignUpView{})
}

// SignUp processes the sign-up form (POST /signup).
func (h *Handler) SignUp(c echo.Context) error {
	var form validation.SignUp
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	view := SignUpView{Form: form}
	view.Form.Password, view.Form.RepeatPassword = "", ""

	sess, err := h.service(c).SignUp(c.Request().Context(), form)
	if err != nil {
		var verrs *validation.Errors
		switch {
		case errors.As(err, &verrs):
			view.Errors = verrs
		default:
			view.Banner = Message(err)
			view.EmailExists = errors.Is(err, ErrEmailExists)
		}
		return render(c, "auth/signup", view)
	}

	return h.commit(c, *sess, "")
}

// LogOut removes the session (POST /logout).
func (h *Handler) LogOut(c echo.Context) error {
	store := GetStore(c)
	if store == nil {
		return apperror.NewMissingContext()
	}
	if err := store.LogOut(c.Request().Context()); err != nil {
		return apperror.NewInternal(err)
	}
	return middleware.Redirect(c, "/login")
}

// DeleteAccountForm renders the confirmation (GET /account/delete).
func (h *Handler) DeleteAccountForm(c echo.Context) error {
	return render(c, "auth/delete_account", DeleteAccountView{})
}

// DeleteAccount deletes the account and logs out (POST /account/delete).
func (h *Handler) DeleteAccount(c echo.Context) error {
	sess, store := GetSession(c), GetStore(c)
	if sess == nil || store == nil {
		return apperror.NewMissingContext()
	}

	ctx := c.Request().Context()
	if err := h.service(c).DeleteAccount(ctx, sess.UserID); err != nil {
		return render(c, "auth/delete_account", DeleteAccountView{Banner: msgNetwork})
	}

	if err := store.LogOut(ctx); err != nil {
		return apperror.NewInternal(err)
	}
	return middleware.Redirect(c, "/signup")
}

// commit stores the session and resumes where the visitor was headed:
// the remembered endpoint, else from, else the student list.
func (h *Handler) commit(c echo.Context, sess session.Session, from string) error {
	store := GetStore(c)
	if store == nil {
		return apperror.NewMissingContext()
	}

	ctx := c.Request().Context()
	if err := store.LogIn(ctx, sess); err != nil {
		return apperror.NewInternal(err)
	}

	target := store.TakeEndpoint(ctx)
	if !isLocalPath(target) {
		target = from
	}
	if !isLocalPath(target) {
		target = homePath
	}
	return middleware.Redirect(c, target)
}

// render shows a full page, or just its content for HTMX requests.
func render(c echo.Context, name string, view any) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, templates.Fragment(name, view))
	}
	return middleware.Render(c, http.StatusOK, templates.Page(name, view))
}
