package router // router defines how HTTP routes are registered for the API

import (
	"github.com/iliyamo/study-room-reservation/internal/handler"    // owner handlers
	"github.com/iliyamo/study-room-reservation/internal/middleware" // JWT + role middlewares
	"github.com/labstack/echo/v4"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Venues ----
	g.POST("/venues", o.CreateVenue)
	// NOTE: Listing all venues is handled by the public browse API.  The
	// owner-scoped list lives at /v1/my-venues to avoid route conflicts with
	// the public /v1/venues handler.
	g.GET("/my-venues", o.ListVenues)
	g.PUT("/venues/:id", o.UpdateVenue)
	g.PATCH("/venues/:id", o.UpdateVenue) // allow partial updates via PATCH as well
	g.DELETE("/venues/:id", o.DeleteVenue)

	// ---- Cabins ----
	g.POST("/venues/:id/cabins", o.AddCabins)
	// NOTE: Listing cabins by venue is provided by the public API (GET /v1/venues/:id/cabins).
	g.PATCH("/cabins/:id/price", o.UpdateCabinPrice)
	g.POST("/cabins/:id/maintenance", o.SetMaintenance)
	g.DELETE("/cabins/:id/maintenance", o.ClearMaintenance)

	// ---- Waitlist oversight ----
	g.GET("/venues/:id/waitlist", o.VenueWaitlist) // every queued entry across the venue's cabins
}
