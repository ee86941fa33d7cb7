package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/handler"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
)

// RegisterTeacher registers the teacher area under /api/teacher. Teachers
// act on their own slots; admins may use the same routes for any teacher.
func RegisterTeacher(e *echo.Echo, h *handler.TeacherHandler, jwtSecret string) {
	g := e.Group(
		"/api/teacher",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleTeacher, model.RoleAdmin),
	)

	// ---- Bookings ----
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/export", h.Export)
	g.PUT("/bookings/:id/accept", h.Accept)
	g.DELETE("/bookings/:id", h.Cancel)

	// ---- Own data ----
	g.GET("/slots", h.ListSlots)
	g.GET("/info", h.Info)
	g.PUT("/room", h.UpdateRoom)
	g.PUT("/password", h.ChangePassword)
	g.POST("/feedback", h.SubmitFeedback)

	registerTeacherRequests(g, h)
}
