// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avolkov/event-seat-booking/internal/handler"
)

// RegisterRoutes registers routes that need no dependencies. Currently only
// the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the public browsing endpoints under /v1. These
// are read-only, require no authentication, and sit behind the response
// cache middleware when one is supplied.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/events", h.ListEvents)
	g.GET("/events/:id", h.GetEvent)
	g.GET("/venues", h.ListVenues)
	g.GET("/venues/:id/sections", h.ListVenueSections)
	// Derived availability: recomputed from the ledgers on every request.
	g.GET("/events/:id/sections/:sectionID/seats", h.GetSeatAvailability)
}

// RegisterBooking registers the transactional endpoints under /v1. All of
// them require a valid bearer token; the rate limiter (when supplied) runs
// after authentication so buckets can key on the user.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, auth echo.MiddlewareFunc, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", append([]echo.MiddlewareFunc{auth}, mw...)...)
	g.POST("/holds", h.Hold)
	g.POST("/holds/batch", h.HoldBatch)
	g.POST("/bookings/confirm", h.Confirm)
	g.POST("/bookings/confirm/batch", h.ConfirmBatch)
	g.GET("/my/bookings", h.ListMyBookings)
}
