// Package engine implements the seat reservation and booking engine: the
// transitions of a seat between available, held and booked, made race-free
// by the store's constraints and row locks rather than by in-process
// synchronization. Several engine instances may run against the same
// database; nothing here assumes it is the only writer.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/event-seat-booking/internal/model"
	"github.com/avolkov/event-seat-booking/internal/repository"
)

// DefaultHoldTTL applies when a hold request does not specify one.
const DefaultHoldTTL = 600 * time.Second

// Bounds on caller-supplied values. TTLs are clamped rather than rejected;
// batches beyond the cap are rejected outright.
const (
	minHoldTTL   = 30 * time.Second
	maxHoldTTL   = 3600 * time.Second
	MaxBatchSize = 10
)

// HoldResult is returned for each seat successfully held.
type HoldResult struct {
	HoldID    uint64    `json:"hold_id"`
	SeatID    uint64    `json:"seat_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BookingResult is returned for each hold successfully confirmed.
type BookingResult struct {
	BookingID  uint64 `json:"booking_id"`
	BookingRef string `json:"booking_ref"`
	EventID    uint64 `json:"event_id"`
	SeatID     uint64 `json:"seat_id"`
	PriceCents uint32 `json:"price_cents"`
}

// Engine coordinates the hold ledger, the booking ledger and the price
// resolver under one transaction per public operation. It owns no state of
// its own; every invariant lives in the database so the engine stays
// correct when scaled horizontally.
type Engine struct {
	db       *sql.DB
	holds    *repository.HoldRepo
	bookings *repository.BookingRepo
	prices   *repository.PriceRepo
}

// New constructs an Engine over an already-opened pool. The pool's
// lifecycle belongs to the caller.
func New(db *sql.DB, holds *repository.HoldRepo, bookings *repository.BookingRepo, prices *repository.PriceRepo) *Engine {
	return &Engine{db: db, holds: holds, bookings: bookings, prices: prices}
}

// Hold places a time-boxed exclusive hold on one seat. Steps, all in one
// transaction: reclaim any stale hold on the key, reject if the seat is
// already booked, insert the new hold. A live competing hold surfaces as
// ErrSeatUnavailable via the unique-index conflict inside the ledger.
func (e *Engine) Hold(ctx context.Context, eventID, seatID, userID uint64, ttl time.Duration) (*HoldResult, error) {
	if eventID == 0 || seatID == 0 || userID == 0 {
		return nil, fmt.Errorf("event, seat and user are required: %w", ErrValidation)
	}
	var res *HoldResult
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = e.holdOne(ctx, tx, eventID, seatID, userID, clampTTL(ttl))
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HoldBatch holds every listed seat or none of them. Seats are processed in
// input order, which keeps lock acquisition order stable across requests
// and error messages reproducible; if two overlapping batches still
// deadlock, the store picks a victim and that batch fails whole with
// ErrSeatUnavailable. Duplicate seat IDs self-conflict and fail the batch.
func (e *Engine) HoldBatch(ctx context.Context, eventID uint64, seatIDs []uint64, userID uint64, ttl time.Duration) ([]HoldResult, error) {
	if eventID == 0 || userID == 0 {
		return nil, fmt.Errorf("event and user are required: %w", ErrValidation)
	}
	if err := checkBatchSize(len(seatIDs)); err != nil {
		return nil, err
	}
	for _, id := range seatIDs {
		if id == 0 {
			return nil, fmt.Errorf("seat ids must be positive: %w", ErrValidation)
		}
	}

	ttlSeconds := clampTTL(ttl)
	results := make([]HoldResult, 0, len(seatIDs))
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		for _, seatID := range seatIDs {
			res, err := e.holdOne(ctx, tx, eventID, seatID, userID, ttlSeconds)
			if err != nil {
				return err
			}
			results = append(results, *res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Confirm converts a live hold into a permanent booking at the
// caller-supplied price. The hold row is locked for update first, so
// concurrent confirmations of the same hold serialize and the loser
// observes a RELEASED hold.
func (e *Engine) Confirm(ctx context.Context, holdID, userID uint64, priceCents uint32) (*BookingResult, error) {
	if holdID == 0 || userID == 0 {
		return nil, fmt.Errorf("hold and user are required: %w", ErrValidation)
	}
	fixed := func(context.Context, *sql.Tx, uint64, uint64) (uint32, error) {
		return priceCents, nil
	}
	var res *BookingResult
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = e.confirmOne(ctx, tx, holdID, userID, fixed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ConfirmBatch confirms every listed hold or none of them. Prices are
// resolved server-side per seat (seat-specific row, else section row)
// inside the same transaction that writes the bookings. Any hold failing
// any check rolls back bookings already staged earlier in the batch.
func (e *Engine) ConfirmBatch(ctx context.Context, holdIDs []uint64, userID uint64) ([]BookingResult, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user is required: %w", ErrValidation)
	}
	if err := checkBatchSize(len(holdIDs)); err != nil {
		return nil, err
	}
	for _, id := range holdIDs {
		if id == 0 {
			return nil, fmt.Errorf("hold ids must be positive: %w", ErrValidation)
		}
	}

	results := make([]BookingResult, 0, len(holdIDs))
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		for _, holdID := range holdIDs {
			res, err := e.confirmOne(ctx, tx, holdID, userID, e.resolvePrice)
			if err != nil {
				return err
			}
			results = append(results, *res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// holdOne performs the per-seat hold steps inside the caller's transaction.
func (e *Engine) holdOne(ctx context.Context, tx *sql.Tx, eventID, seatID, userID uint64, ttlSeconds int) (*HoldResult, error) {
	if _, err := e.holds.ExpireStaleTx(ctx, tx, eventID, seatID); err != nil {
		return nil, e.classify(err)
	}
	// Locking read: a confirmation committing mid-hold must not slip a
	// booking in between this check and the insert below.
	booked, err := e.bookings.HasConfirmedLockedTx(ctx, tx, eventID, seatID)
	if err != nil {
		return nil, e.classify(err)
	}
	if booked {
		return nil, fmt.Errorf("seat %d: %w", seatID, ErrSeatUnavailable)
	}
	h, err := e.holds.CreateTx(ctx, tx, eventID, seatID, userID, ttlSeconds)
	if errors.Is(err, repository.ErrActiveHoldExists) {
		return nil, fmt.Errorf("seat %d: %w", seatID, ErrSeatUnavailable)
	}
	if err != nil {
		return nil, e.classify(err)
	}
	return &HoldResult{HoldID: h.ID, SeatID: h.SeatID, ExpiresAt: h.ExpiresAt}, nil
}

// confirmOne performs the per-hold confirm steps inside the caller's
// transaction. price supplies the amount to record once the hold's event
// and seat are known.
func (e *Engine) confirmOne(ctx context.Context, tx *sql.Tx, holdID, userID uint64, price priceFunc) (*BookingResult, error) {
	h, err := e.holds.GetForUpdateTx(ctx, tx, holdID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hold %d: %w", holdID, ErrHoldNotFound)
	}
	if err != nil {
		return nil, e.classify(err)
	}
	if !h.Live(time.Now().UTC()) {
		return nil, fmt.Errorf("hold %d: %w", holdID, ErrHoldExpired)
	}
	booked, err := e.bookings.HasConfirmedTx(ctx, tx, h.EventID, h.SeatID)
	if err != nil {
		return nil, e.classify(err)
	}
	if booked {
		return nil, fmt.Errorf("seat %d: %w", h.SeatID, ErrAlreadyBooked)
	}
	cents, err := price(ctx, tx, h.EventID, h.SeatID)
	if err != nil {
		return nil, e.classify(err)
	}

	b := &model.Booking{
		EventID:        h.EventID,
		SeatID:         h.SeatID,
		UserID:         userID,
		PricePaidCents: cents,
		BookingRef:     uuid.NewString(),
	}
	err = e.bookings.CreateTx(ctx, tx, b)
	if errors.Is(err, repository.ErrBookingExists) {
		return nil, fmt.Errorf("seat %d: %w", h.SeatID, ErrAlreadyBooked)
	}
	if err != nil {
		return nil, e.classify(err)
	}
	if err := e.holds.MarkReleasedTx(ctx, tx, holdID); err != nil {
		return nil, e.classify(err)
	}
	return &BookingResult{
		BookingID:  b.ID,
		BookingRef: b.BookingRef,
		EventID:    b.EventID,
		SeatID:     b.SeatID,
		PriceCents: cents,
	}, nil
}

type priceFunc func(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (uint32, error)

// resolvePrice is the server-side pricing used by ConfirmBatch. An unpriced
// seat books at zero to match how the catalog treats missing prices, but
// that case is logged loudly because charging nothing is rarely intended.
func (e *Engine) resolvePrice(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (uint32, error) {
	cents, err := e.prices.ResolveTx(ctx, tx, eventID, seatID)
	if errors.Is(err, repository.ErrPriceUnavailable) {
		log.Printf("engine: no price configured for event %d seat %d, booking at zero", eventID, seatID)
		return 0, nil
	}
	return cents, err
}

// classify maps a lock wait timeout or deadlock rollback to
// ErrSeatUnavailable, since the caller lost a serialization race and should
// retry the whole operation. Everything else passes through as a store
// failure.
func (e *Engine) classify(err error) error {
	if repository.IsLockConflict(err) {
		return fmt.Errorf("lost lock race: %w", ErrSeatUnavailable)
	}
	return err
}

// withTx runs fn inside one transaction, rolling back on any error so no
// partial batch is ever visible.
func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func clampTTL(ttl time.Duration) int {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	if ttl < minHoldTTL {
		ttl = minHoldTTL
	}
	if ttl > maxHoldTTL {
		ttl = maxHoldTTL
	}
	return int(ttl / time.Second)
}

func checkBatchSize(n int) error {
	if n == 0 {
		return fmt.Errorf("batch must not be empty: %w", ErrValidation)
	}
	if n > MaxBatchSize {
		return fmt.Errorf("batch exceeds %d items: %w", MaxBatchSize, ErrValidation)
	}
	return nil
}
