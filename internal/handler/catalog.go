package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/event-seat-booking/internal/repository"
)

// CatalogHandler serves the read-only browsing endpoints: events, venues,
// sections and the derived seat availability grid. None of these mutate
// anything, so they sit behind the response cache rather than the rate
// limiter.
type CatalogHandler struct {
	Events *repository.EventRepo
	Venues *repository.VenueRepo
	Seats  *repository.SeatRepo
}

// NewCatalogHandler constructs a CatalogHandler; all dependencies are
// required.
func NewCatalogHandler(events *repository.EventRepo, venues *repository.VenueRepo, seats *repository.SeatRepo) *CatalogHandler {
	if events == nil || venues == nil || seats == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Events: events, Venues: venues, Seats: seats}
}

// ListEvents handles GET /v1/events.
func (h *CatalogHandler) ListEvents(c echo.Context) error {
	items, err := h.Events.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetEvent handles GET /v1/events/:id. Returns the event plus per-section
// seat counts and the configured price range per section.
func (h *CatalogHandler) GetEvent(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	sections, err := h.Events.SectionsForEvent(ctx, ev.EventID, ev.VenueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev, "sections": sections})
}

// ListVenues handles GET /v1/venues.
func (h *CatalogHandler) ListVenues(c echo.Context) error {
	items, err := h.Venues.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListVenueSections handles GET /v1/venues/:id/sections.
func (h *CatalogHandler) ListVenueSections(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.Venues.ListSections(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSeatAvailability handles GET /v1/events/:id/sections/:sectionID/seats.
// Every seat of the section is returned with its derived status for the
// event (BOOKED / HELD / AVAILABLE) and the resolved price when configured.
func (h *CatalogHandler) GetSeatAvailability(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	sectionID, err := pathID(c, "sectionID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.AvailabilityBySection(ctx, eventID, sectionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
