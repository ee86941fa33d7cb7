// Package router registers the HTTP routes of the portal on an Echo
// instance. Each Register function mounts one area with its middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/handler"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication and no
// middleware: currently the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers login and the current-user endpoint. limit guards
// the login route against password guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, limit)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the anonymous booking endpoints. Reads of
// teachers and settings go through cache; every write goes through limit.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/api")

	g.GET("/teachers", p.ListTeachers, cache)
	g.GET("/settings", p.GetSettings, cache)
	// Slot availability changes with every booking and is never cached.
	g.GET("/slots", p.ListSlots)

	g.POST("/bookings", p.Book, limit)
	g.GET("/bookings/verify/:token", p.VerifyBooking)

	g.POST("/booking-requests", p.CreateRequest, limit)
	g.GET("/booking-requests/verify/:token", p.VerifyRequest)
}
