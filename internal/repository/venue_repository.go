package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/event-seat-booking/internal/model"
)

// VenueRepo reads the venue and section catalog.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a VenueRepo bound to the provided database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// SectionWithSeats is a section plus its seat count, for venue browsing.
type SectionWithSeats struct {
	SectionID  uint64 `json:"section_id"`
	VenueID    uint64 `json:"venue_id"`
	Name       string `json:"name"`
	TotalSeats uint32 `json:"total_seats"`
}

// ListAll returns all venues ordered by ID.
func (r *VenueRepo) ListAll(ctx context.Context) ([]model.Venue, error) {
	const q = `SELECT venue_id, name, address, created_at FROM venues ORDER BY venue_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	out := make([]model.Venue, 0)
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByID returns one venue or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, venueID uint64) (*model.Venue, error) {
	const q = `SELECT venue_id, name, address, created_at FROM venues WHERE venue_id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, venueID).Scan(&v.ID, &v.Name, &v.Address, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return &v, nil
}

// ListSections returns the venue's sections with seat counts.
func (r *VenueRepo) ListSections(ctx context.Context, venueID uint64) ([]SectionWithSeats, error) {
	const q = `SELECT sec.section_id, sec.venue_id, sec.name,
	                  COUNT(DISTINCT s.seat_id) AS total_seats
	           FROM sections sec
	           LEFT JOIN seats s ON s.section_id = sec.section_id
	           WHERE sec.venue_id = ?
	           GROUP BY sec.section_id
	           ORDER BY sec.section_id`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := make([]SectionWithSeats, 0)
	for rows.Next() {
		var s SectionWithSeats
		if err := rows.Scan(&s.SectionID, &s.VenueID, &s.Name, &s.TotalSeats); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
