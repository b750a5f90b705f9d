package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/handler"
	"github.com/iliyamo/study-room-reservation/internal/middleware"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All routes
// require a valid JWT and the STUDENT role.  Students can hold cabins,
// turn holds into bookings, manage their bookings and queue on the
// waitlist of occupied cabins.
func RegisterStudent(e *echo.Echo, h *handler.StudentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT"),
	)
	// Note: GET /v1/cabins/:id and GET /v1/venues/:id/cabins are registered on
	// the public router so that guests can view cabin availability.  Student-
	// specific endpoints begin here.

	// Interactive holds on a cabin.
	g.POST("/cabins/:id/hold", h.AcquireHold)
	g.DELETE("/cabins/:id/hold", h.ReleaseHold)
	g.GET("/cabins/:id/hold", h.HoldStatus)

	// Booking lifecycle: hold-then-confirm or direct.
	g.POST("/bookings/hold", h.HoldBooking)
	g.POST("/bookings", h.BookDirect)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking)
	g.POST("/bookings/:id/extend", h.ExtendBooking)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.GET("/my-bookings", h.ListBookings)

	// Waitlist membership.
	g.POST("/cabins/:id/waitlist", h.JoinWaitlist)
	g.GET("/waitlist/:id", h.WaitlistStatus)
	g.DELETE("/waitlist/:id", h.CancelWaitlistEntry)
	g.GET("/my-waitlists", h.ListWaitlists)
}
