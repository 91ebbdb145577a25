package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/atharvamit-2203/campus-room-booking/internal/handler"
	"github.com/atharvamit-2203/campus-room-booking/internal/middleware"
	"github.com/atharvamit-2203/campus-room-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check,
// which load balancers and monitoring systems use to verify that the
// service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBooking wires the booking API under /v1.  Every route requires a
// valid bearer token; cacheMW and rateMW may be pass-throughs when Redis
// is unavailable.  The read-only availability queries sit behind the
// response cache, while the mutating booking routes are registered outside
// it and behind the rate limiter instead.  A cached "free" answer is
// harmless, a cached booking would not be.
func RegisterBooking(e *echo.Echo, rooms *handler.RoomHandler, bookings *handler.BookingHandler, jwtSecret string, cacheMW, rateMW echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleStudent, model.RoleFaculty, model.RoleOrganization, model.RoleAdmin))

	// Read-only availability projections (cacheable snapshots).
	g.GET("/rooms", rooms.ListRooms, cacheMW)
	g.GET("/rooms/:id/free-slots", rooms.FreeSlots, cacheMW)

	// Reservation listings for dashboards and the notification feed.
	g.GET("/rooms/bookings", bookings.ListBookings)
	g.GET("/rooms/my-bookings", bookings.MyBookings)
	g.GET("/timetable/upcoming", bookings.UpcomingFeed)

	// Mutators: atomic admission and cancellation.
	g.POST("/rooms/book", bookings.Book, rateMW)
	g.POST("/rooms/bookings/:id/cancel", bookings.Cancel, rateMW)

	// Room reference data is managed by campus admins only.
	g.POST("/rooms", rooms.CreateRoom, middleware.RequireRole(model.RoleAdmin))
}
