// Package repository provides data access to the booking store. Each table
// gets its own repo struct bound to a *sql.DB; methods with a Tx suffix run
// inside a caller-supplied transaction so that multi-step mutations commit
// or roll back as one unit. Sentinel errors defined here let higher layers
// distinguish failure classes without inspecting driver error codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrActiveHoldExists is returned by HoldRepo.CreateTx when the seat still
// carries a live hold after the single stale-hold eviction retry.
var ErrActiveHoldExists = errors.New("active hold exists for seat")

// ErrBookingExists is returned by BookingRepo.CreateTx when a confirmed
// booking already occupies the (event, seat) key.
var ErrBookingExists = errors.New("booking exists for seat")

// ErrPriceUnavailable is returned by PriceRepo.ResolveTx when neither a
// seat-specific nor a section-level price row exists for the event.
var ErrPriceUnavailable = errors.New("no price configured for seat")

// ErrEventNotFound is returned by EventRepo lookups for unknown event IDs.
var ErrEventNotFound = errors.New("event not found")

// ErrVenueNotFound is returned by VenueRepo lookups for unknown venue IDs.
var ErrVenueNotFound = errors.New("venue not found")

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062), i.e. an insert lost the race on a unique index.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// IsLockConflict reports whether err is a lock wait timeout (1205) or a
// deadlock chosen for rollback (1213). Both mean the transaction lost a
// serialization race and the caller should fail the whole operation.
func IsLockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1205 || me.Number == 1213
}
