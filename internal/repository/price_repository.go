package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PriceRepo resolves the price of a seat for an event. Resolution is a
// fixed two-step lookup: a seat-specific row wins, otherwise the section
// row for the seat's section applies. No row at either level yields
// ErrPriceUnavailable; what to do with an unpriced seat is the caller's
// decision.
type PriceRepo struct {
	db *sql.DB
}

// NewPriceRepo returns a PriceRepo bound to the provided database.
func NewPriceRepo(db *sql.DB) *PriceRepo { return &PriceRepo{db: db} }

// ResolveTx resolves the price in cents for (eventID, seatID) inside the
// given transaction, so batch confirmations price seats against the same
// snapshot they book them in.
func (r *PriceRepo) ResolveTx(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (uint32, error) {
	const seatQ = `SELECT price_cents FROM seat_prices
	               WHERE event_id = ? AND seat_id = ? LIMIT 1`
	var cents uint32
	err := tx.QueryRowContext(ctx, seatQ, eventID, seatID).Scan(&cents)
	if err == nil {
		return cents, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("seat price lookup: %w", err)
	}

	const sectionQ = `SELECT sp.price_cents FROM seat_prices sp
	                  JOIN seats s ON s.section_id = sp.section_id
	                  WHERE sp.event_id = ? AND s.seat_id = ? AND sp.seat_id IS NULL LIMIT 1`
	err = tx.QueryRowContext(ctx, sectionQ, eventID, seatID).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPriceUnavailable
	}
	if err != nil {
		return 0, fmt.Errorf("section price lookup: %w", err)
	}
	return cents, nil
}
