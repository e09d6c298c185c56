package students

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the student routes on the guarded group.
func RegisterRoutes(guarded *echo.Group, h *Handler) {
	guarded.GET("/students", h.Index)
	guarded.GET("/students/add", h.AddForm)
	guarded.POST("/students/add", h.Add)
	guarded.GET("/students/:id", h.Show)
	guarded.GET("/students/:id/edit", h.EditForm)
	guarded.POST("/students/:id/edit", h.Edit)
	guarded.GET("/students/:id/delete", h.DeleteForm)
	guarded.POST("/students/:id/delete", h.Delete)
}
