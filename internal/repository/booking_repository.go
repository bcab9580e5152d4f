package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/event-seat-booking/internal/model"
)

// BookingRepo is the booking ledger: it owns the bookings table. The unique
// index over (event_id, seat_id) is the final line of defense against
// double-selling a seat, independent of anything the hold ledger guarantees.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// HasConfirmedTx reports whether a confirmed booking already exists for
// (eventID, seatID). Must be called inside the same transaction that will
// insert the booking, so the check and the insert commit together.
func (r *BookingRepo) HasConfirmedTx(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (bool, error) {
	const q = `SELECT 1 FROM bookings WHERE event_id = ? AND seat_id = ? AND status = 'CONFIRMED'`
	var one int
	err := tx.QueryRowContext(ctx, q, eventID, seatID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check booking: %w", err)
	}
	return true, nil
}

// HasConfirmedLockedTx is HasConfirmedTx with a shared lock on the read.
// The hold path uses it: under a plain snapshot read, a confirmation could
// commit between this check and the hold insert, leaving a live hold on a
// just-booked seat. The shared lock blocks the racing booking insert until
// this transaction ends; until then the hold being consumed stays HELD, so
// the hold insert here fails on the active-hold unique index instead of
// succeeding on a seat that is about to be booked.
func (r *BookingRepo) HasConfirmedLockedTx(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (bool, error) {
	const q = `SELECT 1 FROM bookings WHERE event_id = ? AND seat_id = ? AND status = 'CONFIRMED' FOR SHARE`
	var one int
	err := tx.QueryRowContext(ctx, q, eventID, seatID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check booking: %w", err)
	}
	return true, nil
}

// CreateTx inserts a confirmed booking. A duplicate-key violation means
// another transaction booked the seat between our check and our insert;
// that surfaces as ErrBookingExists rather than a raw driver error.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (event_id, seat_id, user_id, price_paid_cents, booking_ref)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.EventID, b.SeatID, b.UserID, b.PricePaidCents, b.BookingRef)
	if isDuplicateKey(err) {
		return ErrBookingExists
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("booking insert id: %w", err)
	}
	b.ID = uint64(id)
	b.Status = model.BookingStatusConfirmed
	return nil
}

// UserBooking is one row of a user's booking history, joined with catalog
// data for display. Pure reporting; no concurrency concerns.
type UserBooking struct {
	BookingID      uint64    `json:"booking_id"`
	EventID        uint64    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	EventStart     time.Time `json:"event_start"`
	VenueName      string    `json:"venue_name"`
	VenueAddress   string    `json:"venue_address"`
	SectionName    string    `json:"section_name"`
	SeatID         uint64    `json:"seat_id"`
	RowLabel       string    `json:"row_label"`
	SeatNumber     uint32    `json:"seat_number"`
	PricePaidCents uint32    `json:"price_paid_cents"`
	Status         string    `json:"status"`
	BookedAt       time.Time `json:"booked_at"`
}

// ListByUser returns the user's bookings newest first, joined across the
// catalog tables.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]UserBooking, error) {
	const q = `SELECT b.booking_id, b.event_id, e.title, e.start_ts,
	                  v.name, v.address, sec.name,
	                  b.seat_id, s.row_label, s.seat_number,
	                  b.price_paid_cents, b.status, b.booked_at
	           FROM bookings b
	           JOIN events e ON e.event_id = b.event_id
	           JOIN venues v ON v.venue_id = e.venue_id
	           JOIN seats s ON s.seat_id = b.seat_id
	           JOIN sections sec ON sec.section_id = s.section_id
	           WHERE b.user_id = ?
	           ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]UserBooking, 0)
	for rows.Next() {
		var ub UserBooking
		if err := rows.Scan(
			&ub.BookingID, &ub.EventID, &ub.EventTitle, &ub.EventStart,
			&ub.VenueName, &ub.VenueAddress, &ub.SectionName,
			&ub.SeatID, &ub.RowLabel, &ub.SeatNumber,
			&ub.PricePaidCents, &ub.Status, &ub.BookedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ub)
	}
	return out, rows.Err()
}
