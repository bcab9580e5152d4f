package model

import "time"

// BookingStatusConfirmed is the only booking status this service writes.
// There is no cancellation flow; a confirmed booking is terminal.
const BookingStatusConfirmed = "CONFIRMED"

// Booking is the permanent record that a seat of an event has been sold.
// At most one CONFIRMED booking may ever exist per (event, seat); the
// bookings table enforces that with a unique index.
type Booking struct {
	ID             uint64    // bookings.booking_id
	EventID        uint64    // bookings.event_id
	SeatID         uint64    // bookings.seat_id
	UserID         uint64    // bookings.user_id
	PricePaidCents uint32    // bookings.price_paid_cents
	BookingRef     string    // bookings.booking_ref, opaque reference shown to the user
	Status         string    // bookings.status
	BookedAt       time.Time // bookings.booked_at
}
