// Package handler exposes the HTTP surface of the service: the booking
// operations (holds and confirmations) and the read-only catalog browsing
// endpoints. Handlers translate between the wire format and the engine's
// typed failures; all business rules live below this layer.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/event-seat-booking/internal/engine"
	"github.com/avolkov/event-seat-booking/internal/middleware"
	"github.com/avolkov/event-seat-booking/internal/queue"
	"github.com/avolkov/event-seat-booking/internal/repository"
	queue_publisher "github.com/avolkov/event-seat-booking/internal/service"
)

// ReservationService is the slice of the engine the booking handlers need.
// Declared here so handler tests can substitute a stub.
type ReservationService interface {
	Hold(ctx context.Context, eventID, seatID, userID uint64, ttl time.Duration) (*engine.HoldResult, error)
	HoldBatch(ctx context.Context, eventID uint64, seatIDs []uint64, userID uint64, ttl time.Duration) ([]engine.HoldResult, error)
	Confirm(ctx context.Context, holdID, userID uint64, priceCents uint32) (*engine.BookingResult, error)
	ConfirmBatch(ctx context.Context, holdIDs []uint64, userID uint64) ([]engine.BookingResult, error)
}

// BookingHandler serves the transactional endpoints. Identity is supplied
// by the JWT middleware; these handlers assume it already ran.
type BookingHandler struct {
	Engine   ReservationService
	Bookings *repository.BookingRepo

	// Publish sends the post-commit confirmation event. Best-effort: a
	// broker outage must never fail a booking that already committed.
	Publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// NewBookingHandler wires the handler to the engine and the booking ledger,
// publishing events through the default RabbitMQ publisher.
func NewBookingHandler(eng ReservationService, bookings *repository.BookingRepo) *BookingHandler {
	if eng == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Engine:   eng,
		Bookings: bookings,
		Publish:  queue_publisher.PublishBookingConfirmed,
	}
}

type holdRequest struct {
	EventID    uint64 `json:"event_id" validate:"required"`
	SeatID     uint64 `json:"seat_id" validate:"required"`
	TTLSeconds int    `json:"ttl_seconds" validate:"omitempty,min=1"`
}

type holdBatchRequest struct {
	EventID    uint64   `json:"event_id" validate:"required"`
	SeatIDs    []uint64 `json:"seat_ids" validate:"required,min=1,dive,required"`
	TTLSeconds int      `json:"ttl_seconds" validate:"omitempty,min=1"`
}

type confirmRequest struct {
	HoldID     uint64 `json:"hold_id" validate:"required"`
	PriceCents uint32 `json:"price_cents"`
}

type confirmBatchRequest struct {
	HoldIDs []uint64 `json:"hold_ids" validate:"required,min=1,dive,required"`
}

// Hold handles POST /v1/holds. Places a single time-boxed hold and returns
// 201 with the hold ID and expiry, or 409 when the seat is taken.
func (h *BookingHandler) Hold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Engine.Hold(c.Request().Context(), body.EventID, body.SeatID, userID, ttlFrom(body.TTLSeconds))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// HoldBatch handles POST /v1/holds/batch. All listed seats are held in one
// transaction or none are; a single unavailable seat fails the request.
func (h *BookingHandler) HoldBatch(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body holdBatchRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	holds, err := h.Engine.HoldBatch(c.Request().Context(), body.EventID, body.SeatIDs, userID, ttlFrom(body.TTLSeconds))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"holds": holds})
}

// Confirm handles POST /v1/bookings/confirm. Converts one live hold into a
// booking at the caller-supplied price and emits a confirmation event.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body confirmRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Engine.Confirm(c.Request().Context(), body.HoldID, userID, body.PriceCents)
	if err != nil {
		return bookingError(c, err)
	}
	h.publishConfirmed(c.Request().Context(), userID, []engine.BookingResult{*res})
	return c.JSON(http.StatusCreated, res)
}

// ConfirmBatch handles POST /v1/bookings/confirm/batch. Prices are resolved
// server-side; the batch books entirely or not at all.
func (h *BookingHandler) ConfirmBatch(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body confirmBatchRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Engine.ConfirmBatch(c.Request().Context(), body.HoldIDs, userID)
	if err != nil {
		return bookingError(c, err)
	}
	h.publishConfirmed(c.Request().Context(), userID, res)
	return c.JSON(http.StatusCreated, echo.Map{"bookings": res})
}

// ListMyBookings handles GET /v1/my/bookings: the user's booking history
// joined with catalog data, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishConfirmed emits one aggregated event for the committed bookings.
// Failures are logged only; the bookings already exist.
func (h *BookingHandler) publishConfirmed(ctx context.Context, userID uint64, results []engine.BookingResult) {
	if h.Publish == nil || len(results) == 0 {
		return
	}
	ev := queue.BookingConfirmedEvent{
		EventID:     results[0].EventID,
		UserID:      userID,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, r := range results {
		ev.BookingIDs = append(ev.BookingIDs, r.BookingID)
		ev.BookingRefs = append(ev.BookingRefs, r.BookingRef)
		ev.SeatIDs = append(ev.SeatIDs, r.SeatID)
		ev.TotalCents += uint64(r.PriceCents)
	}
	if err := h.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish confirmation event failed: %v", err)
	}
}

// ttlFrom converts the optional ttl_seconds field into a duration; zero
// means "engine default".
func ttlFrom(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// bookingError maps the engine's typed failures onto HTTP statuses. The
// response tells the caller whether retrying makes sense without leaking
// storage internals: pick another seat on 409, re-hold on an expired hold.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrHoldNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
	case errors.Is(err, engine.ErrHoldExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hold expired or invalid"})
	case errors.Is(err, engine.ErrAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
	case errors.Is(err, engine.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already held or booked"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage error"})
	}
}
