package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/handler"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/model"
)

// RegisterAdmin registers the admin area under /api/admin. All routes
// require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Teachers ----
	g.GET("/teachers", a.ListTeachers)
	g.POST("/teachers", a.CreateTeacher)
	g.PUT("/teachers/:id", a.UpdateTeacher)
	g.DELETE("/teachers/:id", a.DeleteTeacher)

	// ---- Slots ----
	g.GET("/slots", a.ListSlots)
	g.POST("/slots", a.CreateSlot)
	g.POST("/slots/generate", a.GenerateSlots)
	g.PUT("/slots/:id", a.UpdateSlot)
	g.DELETE("/slots/:id", a.DeleteSlot)
	g.DELETE("/slots/:id/booking", a.CancelBooking)

	// ---- Settings ----
	g.GET("/settings", a.GetSettings)
	g.PUT("/settings", a.PutSettings)

	g.GET("/feedback", a.ListFeedback)
}
