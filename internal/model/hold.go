package model

import "time"

// Hold statuses. A hold is created HELD and ends in exactly one of the two
// terminal states: EXPIRED when its expiry is observed, RELEASED when a
// confirmation consumes it. Only HELD rows participate in the per-seat
// uniqueness constraint, so terminal rows never block a fresh hold.
const (
	HoldStatusHeld     = "HELD"
	HoldStatusExpired  = "EXPIRED"
	HoldStatusReleased = "RELEASED"
)

// Hold is a time-boxed exclusive claim on one seat of one event by one
// user. It blocks other holds and bookings on the same (event, seat) until
// it is confirmed or its expiry passes.
type Hold struct {
	ID        uint64    // holds.hold_id
	EventID   uint64    // holds.event_id
	SeatID    uint64    // holds.seat_id
	UserID    uint64    // holds.user_id
	Status    string    // holds.status
	CreatedAt time.Time // holds.created_at
	ExpiresAt time.Time // holds.expires_at
}

// Live reports whether the hold still blocks the seat at the given instant.
func (h *Hold) Live(now time.Time) bool {
	return h.Status == HoldStatusHeld && h.ExpiresAt.After(now)
}
