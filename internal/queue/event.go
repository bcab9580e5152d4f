// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published once a confirm transaction has
// committed. It carries enough for downstream consumers (logging,
// notifications, analytics) to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingIDs  []uint64 `json:"booking_ids"`
	BookingRefs []string `json:"booking_refs"`
	EventID     uint64   `json:"event_id"`
	SeatIDs     []uint64 `json:"seat_ids"`
	UserID      uint64   `json:"user_id"`
	TotalCents  uint64   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
