package model

import "time"

// Event is a scheduled performance at a venue. Events and their venues are
// catalog data: this service only reads them.
type Event struct {
	ID        uint64    // events.event_id
	VenueID   uint64    // events.venue_id
	Title     string    // events.title
	StartTS   time.Time // events.start_ts
	EndTS     time.Time // events.end_ts
	CreatedAt time.Time // events.created_at
}
