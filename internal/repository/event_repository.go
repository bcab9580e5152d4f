package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EventRepo reads the event catalog. Catalog rows are maintained elsewhere;
// this service never writes them.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventSummary is one row of the event listing: the event, its venue, and
// how much of the house has been sold.
type EventSummary struct {
	EventID      uint64    `json:"event_id"`
	Title        string    `json:"title"`
	StartTS      time.Time `json:"start_ts"`
	EndTS        time.Time `json:"end_ts"`
	VenueID      uint64    `json:"venue_id"`
	VenueName    string    `json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	TotalSeats   uint32    `json:"total_seats"`
	BookedSeats  uint32    `json:"booked_seats"`
}

// SectionSummary is a per-section rollup for one event: seat counts plus
// the configured price range.
type SectionSummary struct {
	SectionID     uint64  `json:"section_id"`
	Name          string  `json:"name"`
	TotalSeats    uint32  `json:"total_seats"`
	BookedSeats   uint32  `json:"booked_seats"`
	MinPriceCents *uint32 `json:"min_price_cents,omitempty"`
	MaxPriceCents *uint32 `json:"max_price_cents,omitempty"`
}

// ListAll returns all events ordered by start time, each with venue info
// and booked/total seat counts.
func (r *EventRepo) ListAll(ctx context.Context) ([]EventSummary, error) {
	const q = `SELECT e.event_id, e.title, e.start_ts, e.end_ts,
	                  v.venue_id, v.name, v.address,
	                  COUNT(DISTINCT s.seat_id) AS total_seats,
	                  COUNT(DISTINCT b.booking_id) AS booked_seats
	           FROM events e
	           JOIN venues v ON v.venue_id = e.venue_id
	           LEFT JOIN sections sec ON sec.venue_id = v.venue_id
	           LEFT JOIN seats s ON s.section_id = sec.section_id
	           LEFT JOIN bookings b
	                  ON b.event_id = e.event_id AND b.seat_id = s.seat_id AND b.status = 'CONFIRMED'
	           GROUP BY e.event_id, v.venue_id
	           ORDER BY e.start_ts ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]EventSummary, 0)
	for rows.Next() {
		var es EventSummary
		if err := rows.Scan(
			&es.EventID, &es.Title, &es.StartTS, &es.EndTS,
			&es.VenueID, &es.VenueName, &es.VenueAddress,
			&es.TotalSeats, &es.BookedSeats,
		); err != nil {
			return nil, err
		}
		out = append(out, es)
	}
	return out, rows.Err()
}

// GetByID returns one event with venue info, or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*EventSummary, error) {
	const q = `SELECT e.event_id, e.title, e.start_ts, e.end_ts,
	                  v.venue_id, v.name, v.address
	           FROM events e
	           JOIN venues v ON v.venue_id = e.venue_id
	           WHERE e.event_id = ?`
	var es EventSummary
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(
		&es.EventID, &es.Title, &es.StartTS, &es.EndTS,
		&es.VenueID, &es.VenueName, &es.VenueAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &es, nil
}

// SectionsForEvent returns the sections of the event's venue with per-event
// sales counts and the min/max configured price per section.
func (r *EventRepo) SectionsForEvent(ctx context.Context, eventID, venueID uint64) ([]SectionSummary, error) {
	const q = `SELECT sec.section_id, sec.name,
	                  COUNT(DISTINCT s.seat_id) AS total_seats,
	                  COUNT(DISTINCT b.booking_id) AS booked_seats,
	                  MIN(sp.price_cents), MAX(sp.price_cents)
	           FROM sections sec
	           LEFT JOIN seats s ON s.section_id = sec.section_id
	           LEFT JOIN bookings b
	                  ON b.seat_id = s.seat_id AND b.event_id = ? AND b.status = 'CONFIRMED'
	           LEFT JOIN seat_prices sp
	                  ON sp.section_id = sec.section_id AND sp.event_id = ?
	           WHERE sec.venue_id = ?
	           GROUP BY sec.section_id
	           ORDER BY sec.section_id`
	rows, err := r.db.QueryContext(ctx, q, eventID, eventID, venueID)
	if err != nil {
		return nil, fmt.Errorf("event sections: %w", err)
	}
	defer rows.Close()

	out := make([]SectionSummary, 0)
	for rows.Next() {
		var ss SectionSummary
		var minP, maxP sql.NullInt64
		if err := rows.Scan(&ss.SectionID, &ss.Name, &ss.TotalSeats, &ss.BookedSeats, &minP, &maxP); err != nil {
			return nil, err
		}
		if minP.Valid {
			v := uint32(minP.Int64)
			ss.MinPriceCents = &v
		}
		if maxP.Valid {
			v := uint32(maxP.Int64)
			ss.MaxPriceCents = &v
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}
