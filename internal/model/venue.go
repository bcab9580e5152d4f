package model

import "time"

// Venue is a physical location hosting events.
type Venue struct {
	ID        uint64    `json:"venue_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Section is a named block of seats within a venue.
type Section struct {
	ID      uint64 // sections.section_id
	VenueID uint64 // sections.venue_id
	Name    string // sections.name
}
