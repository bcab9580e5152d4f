package model

// Seat availability statuses as derived from the two ledgers. Availability
// is never stored; it is recomputed on demand from bookings and live holds.
const (
	SeatStatusAvailable = "AVAILABLE"
	SeatStatusHeld      = "HELD"
	SeatStatusBooked    = "BOOKED"
)

// Seat is one sellable position in a section. Seats are immutable within
// this service.
type Seat struct {
	ID         uint64 // seats.seat_id
	SectionID  uint64 // seats.section_id
	RowLabel   string // seats.row_label
	SeatNumber uint32 // seats.seat_number
}

// SeatAvailability is one row of the per-section availability grid: the
// seat, its derived status for a particular event, and the resolved price
// when one exists.
type SeatAvailability struct {
	SeatID     uint64  `json:"seat_id"`
	RowLabel   string  `json:"row_label"`
	SeatNumber uint32  `json:"seat_number"`
	Status     string  `json:"status"`
	PriceCents *uint32 `json:"price_cents,omitempty"`
}
