package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/event-seat-booking/internal/engine"
	"github.com/avolkov/event-seat-booking/internal/queue"
	"github.com/avolkov/event-seat-booking/internal/repository"
)

// stubService implements ReservationService with canned responses so the
// handlers can be exercised without a database.
type stubService struct {
	holdRes    *engine.HoldResult
	holdsRes   []engine.HoldResult
	confirmRes *engine.BookingResult
	batchRes   []engine.BookingResult
	err        error

	calls int
}

func (s *stubService) Hold(context.Context, uint64, uint64, uint64, time.Duration) (*engine.HoldResult, error) {
	s.calls++
	return s.holdRes, s.err
}

func (s *stubService) HoldBatch(context.Context, uint64, []uint64, uint64, time.Duration) ([]engine.HoldResult, error) {
	s.calls++
	return s.holdsRes, s.err
}

func (s *stubService) Confirm(context.Context, uint64, uint64, uint32) (*engine.BookingResult, error) {
	s.calls++
	return s.confirmRes, s.err
}

func (s *stubService) ConfirmBatch(context.Context, []uint64, uint64) ([]engine.BookingResult, error) {
	s.calls++
	return s.batchRes, s.err
}

func newBookingContext(t *testing.T, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestHoldEndpointSuccess(t *testing.T) {
	svc := &stubService{holdRes: &engine.HoldResult{
		HoldID:    11,
		SeatID:    42,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	}}
	h := &BookingHandler{Engine: svc}

	c, rec := newBookingContext(t, `{"event_id":7,"seat_id":42}`, 9)
	require.NoError(t, h.Hold(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hold_id":11`)
	assert.Equal(t, 1, svc.calls)
}

func TestHoldEndpointRequiresAuth(t *testing.T) {
	svc := &stubService{}
	h := &BookingHandler{Engine: svc}

	c, rec := newBookingContext(t, `{"event_id":7,"seat_id":42}`, 0)
	require.NoError(t, h.Hold(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestHoldEndpointRejectsBadBody(t *testing.T) {
	svc := &stubService{}
	h := &BookingHandler{Engine: svc}

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"event_id":`},
		{"missing seat", `{"event_id":7}`},
		{"missing event", `{"seat_id":42}`},
		{"negative ttl", `{"event_id":7,"seat_id":42,"ttl_seconds":-5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newBookingContext(t, tc.body, 9)
			require.NoError(t, h.Hold(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	// Invalid requests must never reach the engine.
	assert.Zero(t, svc.calls)
}

func TestBookingErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", engine.ErrValidation, http.StatusBadRequest},
		{"hold not found", engine.ErrHoldNotFound, http.StatusNotFound},
		{"hold expired", engine.ErrHoldExpired, http.StatusConflict},
		{"already booked", engine.ErrAlreadyBooked, http.StatusConflict},
		{"seat unavailable", engine.ErrSeatUnavailable, http.StatusConflict},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &BookingHandler{Engine: &stubService{err: tc.err}}
			c, rec := newBookingContext(t, `{"hold_id":5}`, 9)
			require.NoError(t, h.Confirm(c))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestConfirmEndpointPublishesEvent(t *testing.T) {
	svc := &stubService{confirmRes: &engine.BookingResult{
		BookingID:  31,
		BookingRef: "2f5c9a1e-0000-0000-0000-000000000000",
		EventID:    7,
		SeatID:     42,
		PriceCents: 2500,
	}}
	var published *queue.BookingConfirmedEvent
	h := &BookingHandler{
		Engine: svc,
		Publish: func(_ context.Context, ev queue.BookingConfirmedEvent) error {
			published = &ev
			return nil
		},
	}

	c, rec := newBookingContext(t, `{"hold_id":5,"price_cents":2500}`, 9)
	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, published)
	assert.Equal(t, uint64(7), published.EventID)
	assert.Equal(t, uint64(9), published.UserID)
	assert.Equal(t, []uint64{42}, published.SeatIDs)
	assert.Equal(t, uint64(2500), published.TotalCents)
}

func TestConfirmEndpointSucceedsWhenPublishFails(t *testing.T) {
	svc := &stubService{confirmRes: &engine.BookingResult{BookingID: 31, EventID: 7, SeatID: 42}}
	h := &BookingHandler{
		Engine: svc,
		Publish: func(context.Context, queue.BookingConfirmedEvent) error {
			return errors.New("broker down")
		},
	}

	c, rec := newBookingContext(t, `{"hold_id":5}`, 9)
	require.NoError(t, h.Confirm(c))
	// The booking committed before publishing; a broker outage is invisible
	// to the caller.
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHoldBatchEndpointReturnsAllHolds(t *testing.T) {
	svc := &stubService{holdsRes: []engine.HoldResult{
		{HoldID: 11, SeatID: 42},
		{HoldID: 12, SeatID: 43},
	}}
	h := &BookingHandler{Engine: svc}

	c, rec := newBookingContext(t, `{"event_id":7,"seat_ids":[42,43]}`, 9)
	require.NoError(t, h.HoldBatch(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"holds"`)
	assert.Contains(t, rec.Body.String(), `"hold_id":12`)
}

func TestHoldBatchEndpointRejectsEmptyList(t *testing.T) {
	svc := &stubService{}
	h := &BookingHandler{Engine: svc}

	c, rec := newBookingContext(t, `{"event_id":7,"seat_ids":[]}`, 9)
	require.NoError(t, h.HoldBatch(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestConfirmBatchEndpointAggregatesOneEvent(t *testing.T) {
	svc := &stubService{batchRes: []engine.BookingResult{
		{BookingID: 31, BookingRef: "ref-1", EventID: 7, SeatID: 42, PriceCents: 1000},
		{BookingID: 32, BookingRef: "ref-2", EventID: 7, SeatID: 43, PriceCents: 1500},
	}}
	var published []queue.BookingConfirmedEvent
	h := &BookingHandler{
		Engine: svc,
		Publish: func(_ context.Context, ev queue.BookingConfirmedEvent) error {
			published = append(published, ev)
			return nil
		},
	}

	c, rec := newBookingContext(t, `{"hold_ids":[5,6]}`, 9)
	require.NoError(t, h.ConfirmBatch(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, published, 1)
	assert.Equal(t, []uint64{31, 32}, published[0].BookingIDs)
	assert.Equal(t, uint64(2500), published[0].TotalCents)
}

func TestListMyBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rows := sqlmock.NewRows([]string{
		"booking_id", "event_id", "title", "start_ts",
		"name", "address", "name",
		"seat_id", "row_label", "seat_number",
		"price_paid_cents", "status", "booked_at",
	}).AddRow(
		31, 7, "Evening Concert", time.Now().UTC().Add(48*time.Hour),
		"City Hall", "1 Main St", "Balcony",
		42, "B", 4,
		2500, "CONFIRMED", time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT b.booking_id, b.event_id").
		WithArgs(uint64(9)).
		WillReturnRows(rows)

	h := &BookingHandler{Engine: &stubService{}, Bookings: repository.NewBookingRepo(db)}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/my/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(9))

	require.NoError(t, h.ListMyBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Evening Concert")
	require.NoError(t, mock.ExpectationsWereMet())
}
