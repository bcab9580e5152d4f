package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/event-seat-booking/internal/model"
)

// SeatRepo serves the derived-availability view of the seat grid. Status is
// computed per request from the two ledgers and never stored anywhere: a
// seat is BOOKED when a confirmed booking exists, HELD when a live hold
// exists, AVAILABLE otherwise.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// AvailabilityBySection returns every seat of the section with its derived
// status for the event and the resolved price when one is configured.
// Holds whose expiry has passed count as AVAILABLE even before any
// reclamation has run, because the join requires expires_at in the future.
func (r *SeatRepo) AvailabilityBySection(ctx context.Context, eventID, sectionID uint64) ([]model.SeatAvailability, error) {
	const q = `SELECT s.seat_id, s.row_label, s.seat_number,
	                  CASE
	                      WHEN b.booking_id IS NOT NULL THEN 'BOOKED'
	                      WHEN h.hold_id IS NOT NULL THEN 'HELD'
	                      ELSE 'AVAILABLE'
	                  END AS status,
	                  COALESCE(sp_seat.price_cents, sp_sec.price_cents) AS price_cents
	           FROM seats s
	           LEFT JOIN bookings b
	                  ON b.seat_id = s.seat_id AND b.event_id = ? AND b.status = 'CONFIRMED'
	           LEFT JOIN holds h
	                  ON h.seat_id = s.seat_id AND h.event_id = ?
	                 AND h.status = 'HELD' AND h.expires_at > UTC_TIMESTAMP()
	           LEFT JOIN seat_prices sp_seat
	                  ON sp_seat.event_id = ? AND sp_seat.seat_id = s.seat_id
	           LEFT JOIN seat_prices sp_sec
	                  ON sp_sec.event_id = ? AND sp_sec.section_id = s.section_id AND sp_sec.seat_id IS NULL
	           WHERE s.section_id = ?
	           ORDER BY s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID, eventID, eventID, eventID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("seat availability: %w", err)
	}
	defer rows.Close()

	out := make([]model.SeatAvailability, 0)
	for rows.Next() {
		var sa model.SeatAvailability
		var price sql.NullInt64
		if err := rows.Scan(&sa.SeatID, &sa.RowLabel, &sa.SeatNumber, &sa.Status, &price); err != nil {
			return nil, err
		}
		if price.Valid {
			cents := uint32(price.Int64)
			sa.PriceCents = &cents
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}
