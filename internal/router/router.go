package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/study-room-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/study-room-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out.  The handler accepts either a JSON
	// body containing a `refresh_token` (revoking that session) or a bearer
	// access token (revoking every session of the user).  A 204 response is
	// returned on success; otherwise 400/401/500 are possible depending on
	// the error.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Apply the RequireRole middleware for any authenticated endpoint.  Both
	// OWNER and STUDENT roles may query their own profile.  The middleware
	// will reject requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("OWNER", "STUDENT"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler.  This route lives
	// at the top level (outside of the protected group) so clients can call
	// either /v1/auth/logout or /v1/logout to terminate a session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided Echo instance.
// The provided PublicHandler exposes handlers that return sanitized data for venues
// and cabins. These routes do not apply any JWT or role middleware and are
// intended for guest users.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	// Expose list of all venues
	e.GET("/v1/venues", p.GetPublicVenues)
	// Venue details with occupancy counters
	e.GET("/v1/venues/:id", p.GetPublicVenue)
	// List cabins of a specific venue with their effective status
	e.GET("/v1/venues/:id/cabins", p.GetPublicCabins)
	// Live state of a single cabin.  This read runs through the engine, so a
	// lapsed hold is repaired (freed or offered to the waitlist) before the
	// response is built.  Authentication is not required so that guests can
	// check a cabin before signing up.
	e.GET("/v1/cabins/:id", p.GetPublicCabin)
	// Search venues by city and optional name fragment
	e.GET("/v1/search/venues", p.SearchPublicVenues)
}
