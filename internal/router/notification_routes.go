package router

// This file registers the in-app notification routes.  Notifications are
// written by the engine's event dispatcher (waitlist offers, hold
// expiries, booking confirmations) and both roles read the same inbox,
// so the routes accept OWNER and STUDENT alike.  They are separate from
// the role-scoped route files to keep concerns isolated.

import (
	"github.com/iliyamo/study-room-reservation/internal/handler"
	"github.com/iliyamo/study-room-reservation/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterNotifications registers routes for reading and acknowledging
// in-app notifications.  All routes are mounted under /v1 and require a
// JWT token with either role.
func RegisterNotifications(e *echo.Echo, h *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER", "STUDENT"),
	)
	// List the caller's notifications, newest first (?limit= caps the page)
	g.GET("/notifications", h.List)
	// Mark a single notification as read
	g.POST("/notifications/:id/read", h.MarkRead)
}
