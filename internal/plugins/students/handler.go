package students

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/apperror"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/middleware"
	"github.com/keyxmakerx/studentdesk/internal/plugins/auth"
	"github.com/keyxmakerx/studentdesk/internal/templates"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// listPath is the student list; loaders fall back to it on any error.
const listPath = "/students"

// Handler handles the student pages. GET handlers are loaders, POST
// handlers are actions: they either redirect or re-render with errors.
type Handler struct {
	api *gateway.Client
}

// NewHandler creates a new student handler. api is the anonymous client;
// each request binds it to the visitor's session.
func NewHandler(api *gateway.Client) *Handler {
	return &Handler{api: api}
}

// service returns the workflows bound to the visitor's session.
func (h *Handler) service(c echo.Context) StudentService {
	if store := auth.GetStore(c); store != nil {
		return NewStudentService(h.api.WithTokens(store))
	}
	return NewStudentService(h.api)
}

// Index renders the student list (GET /students).
func (h *Handler) Index(c echo.Context) error {
	return h.renderList(c, nil)
}

// AddForm renders the add modal over the list (GET /students/add).
func (h *Handler) AddForm(c echo.Context) error {
	return h.renderList(c, addForm(validation.Student{}))
}

// Add creates a student (POST /students/add).
func (h *Handler) Add(c echo.Context) error {
	var form validation.Student
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	err := h.service(c).Add(c.Request().Context(), form)
	if err == nil {
		return middleware.Redirect(c, listPath)
	}
	if rejected(err) {
		return endSession(c, err)
	}

	fv := addForm(form)
	applyError(fv, err)
	return h.renderList(c, fv)
}

// Show renders one student (GET /students/:id).
func (h *Handler) Show(c echo.Context) error {
	st, err := h.service(c).Get(c.Request().Context(), studentID(c))
	if err != nil {
		return middleware.Redirect(c, listPath)
	}
	return render(c, "students/detail", DetailView{Student: *st})
}

// EditForm renders the edit panel over the detail (GET /students/:id/edit).
func (h *Handler) EditForm(c echo.Context) error {
	st, err := h.service(c).Get(c.Request().Context(), studentID(c))
	if err != nil {
		return middleware.Redirect(c, listPath)
	}
	return render(c, "students/detail", DetailView{Student: *st, Edit: editForm(st.ID, formFor(*st))})
}

// Edit updates a student (POST /students/:id/edit).
func (h *Handler) Edit(c echo.Context) error {
	id := studentID(c)
	var form validation.Student
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	svc := h.service(c)
	err := svc.Edit(c.Request().Context(), id, form)
	if err == nil {
		return middleware.Redirect(c, studentURL(id))
	}
	if rejected(err) {
		return endSession(c, err)
	}

	fv := editForm(id, form)
	applyError(fv, err)
	return render(c, "students/detail", DetailView{Student: h.backdrop(c, svc, id), Edit: fv})
}

// DeleteForm renders the confirmation modal (GET /students/:id/delete).
func (h *Handler) DeleteForm(c echo.Context) error {
	st, err := h.service(c).Get(c.Request().Context(), studentID(c))
	if err != nil {
		return middleware.Redirect(c, listPath)
	}
	return render(c, "students/detail", DetailView{Student: *st, Delete: deleteForm(st.ID)})
}

// Delete removes a student (POST /students/:id/delete).
func (h *Handler) Delete(c echo.Context) error {
	id := studentID(c)
	svc := h.service(c)
	if err := svc.Delete(c.Request().Context(), id); err != nil {
		if rejected(err) {
			return endSession(c, err)
		}
		dv := deleteForm(id)
		dv.Banner = apperror.SafeMessage(err)
		return render(c, "students/detail", DetailView{Student: h.backdrop(c, svc, id), Delete: dv})
	}
	return middleware.Redirect(c, listPath)
}

// renderList loads the list and renders it, with the add modal when fv is set.
func (h *Handler) renderList(c echo.Context, fv *FormView) error {
	view := ListView{Add: fv}
	list, err := h.service(c).List(c.Request().Context())
	if rejected(err) {
		return endSession(c, err)
	}
	if err != nil {
		view.Banner = apperror.SafeMessage(err)
	}
	view.Students = list
	return render(c, "students/list", view)
}

// rejected reports whether the API refused the visitor's token.
func rejected(err error) bool {
	return err != nil && apperror.SafeCode(err) == http.StatusUnauthorized
}

// endSession drops a session the API no longer accepts and hands err on to
// the error handler, which sends the visitor to log in.
func endSession(c echo.Context, err error) error {
	if store := auth.GetStore(c); store != nil {
		if lerr := store.LogOut(c.Request().Context()); lerr != nil {
			slog.Warn("dropping rejected session failed", slog.Any("error", lerr))
		}
	}
	return err
}

// backdrop reloads the student shown behind a failed panel or modal. A
// failed reload leaves just the ID.
func (h *Handler) backdrop(c echo.Context, svc StudentService, id string) Student {
	st, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return Student{ID: id}
	}
	return *st
}

// applyError puts field errors next to their fields and anything else in
// the form's banner.
func applyError(fv *FormView, err error) {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		fv.Errors = verrs
		return
	}
	fv.Banner = apperror.SafeMessage(err)
}

func addForm(form validation.Student) *FormView {
	return &FormView{
		Title:   "Add student",
		Action:  "/students/add",
		Cancel:  listPath,
		Submit:  "Add student",
		Form:    form,
		Genders: Genders,
	}
}

func editForm(id string, form validation.Student) *FormView {
	return &FormView{
		Title:   "Edit student",
		Action:  studentURL(id) + "/edit",
		Cancel:  studentURL(id),
		Submit:  "Save changes",
		Form:    form,
		Genders: Genders,
	}
}

func deleteForm(id string) *DeleteView {
	return &DeleteView{Action: studentURL(id) + "/delete"}
}

// studentID returns the unescaped :id path parameter.
func studentID(c echo.Context) string {
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		return c.Param("id")
	}
	return id
}

// studentURL is the detail page of a student.
func studentURL(id string) string {
	return listPath + "/" + url.PathEscape(id)
}

// render shows a full page, or just its content for HTMX requests.
func render(c echo.Context, name string, view any) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, templates.Fragment(name, view))
	}
	return middleware.Render(c, http.StatusOK, templates.Page(name, view))
}
