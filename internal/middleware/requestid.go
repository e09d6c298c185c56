package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/studentdesk/internal/requestid"
)

// contextKeyRequestID is the Echo context key holding the request ID.
const contextKeyRequestID = "request_id"

// RequestID returns middleware that assigns every request a correlation ID.
// An inbound X-Request-ID is kept; otherwise a new one is generated. The ID
// is echoed in the response and stored in the request's context.Context so
// the Request Gateway forwards it upstream.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(requestid.Header)
			if id == "" || len(id) > 128 {
				id = requestid.New()
			}

			c.Set(contextKeyRequestID, id)
			c.SetRequest(req.WithContext(requestid.With(req.Context(), id)))
			c.Response().Header().Set(requestid.Header, id)

			return next(c)
		}
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(contextKeyRequestID).(string)
	return id
}
