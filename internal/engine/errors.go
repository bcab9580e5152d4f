package engine

import "errors"

// Typed failures returned by the engine. Callers branch on these with
// errors.Is; anything not in this list is a storage failure and carries the
// wrapped driver error. None of them are retried internally: the single
// stale-hold eviction retry inside the hold ledger is the only automatic
// retry in the system, everything else is the caller's call.
var (
	// ErrValidation: malformed input (zero IDs, empty or oversized batch).
	// Rejected before any transaction opens.
	ErrValidation = errors.New("invalid request")

	// ErrSeatUnavailable: the seat is actively held or already booked, or
	// the operation lost a lock race. Retry against another seat or
	// re-query availability.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrHoldNotFound: no hold with that ID exists.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired: the hold exists but is terminal or past its expiry.
	// Recover by taking a fresh hold.
	ErrHoldExpired = errors.New("hold expired")

	// ErrAlreadyBooked: a confirmed booking already occupies the seat.
	// Unreachable while hold exclusivity works, but guarded regardless.
	ErrAlreadyBooked = errors.New("seat already booked")
)
