package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/handler"
)

// registerTeacherRequests mounts the booking request inbox on the teacher
// group. A request is resolved by assigning a free slot or declining it.
func registerTeacherRequests(g *echo.Group, h *handler.TeacherHandler) {
	g.GET("/requests", h.ListRequests)
	g.PUT("/requests/:id/assign", h.AssignRequest)
	g.PUT("/requests/:id/decline", h.DeclineRequest)
}
