package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/event-seat-booking/internal/model"
)

// HoldRepo is the reservation ledger: it owns the holds table and enforces
// the at-most-one-live-hold-per-seat invariant. The invariant lives in the
// store itself, as a unique index over (event_id, seat_id, active) where
// active is a generated column that is non-NULL only while status = 'HELD'.
// Check-then-insert in application code would race between concurrent
// engine instances; losing an insert on that index cannot.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB exposes the underlying pool so callers can open transactions that span
// this repo and the booking ledger.
func (r *HoldRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new HELD row for (eventID, seatID) expiring ttlSeconds
// from now. Expiry is computed in the database so that every replica of the
// engine shares one clock. If the insert trips the active-hold unique index
// the repo evicts any stale hold on the key and retries exactly once; a
// second violation means the competing hold is genuinely live and
// ErrActiveHoldExists is returned. Timestamps are read back after insert so
// the returned Hold reflects what was committed.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, eventID, seatID, userID uint64, ttlSeconds int) (*model.Hold, error) {
	const ins = `INSERT INTO holds (event_id, seat_id, user_id, expires_at)
	             VALUES (?, ?, ?, UTC_TIMESTAMP() + INTERVAL ? SECOND)`

	res, err := tx.ExecContext(ctx, ins, eventID, seatID, userID, ttlSeconds)
	if isDuplicateKey(err) {
		if _, expErr := r.ExpireStaleTx(ctx, tx, eventID, seatID); expErr != nil {
			return nil, expErr
		}
		res, err = tx.ExecContext(ctx, ins, eventID, seatID, userID, ttlSeconds)
		if isDuplicateKey(err) {
			return nil, ErrActiveHoldExists
		}
	}
	if err != nil {
		return nil, fmt.Errorf("insert hold: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("hold insert id: %w", err)
	}

	h := &model.Hold{
		ID:      uint64(id),
		EventID: eventID,
		SeatID:  seatID,
		UserID:  userID,
		Status:  model.HoldStatusHeld,
	}
	const read = `SELECT created_at, expires_at FROM holds WHERE hold_id = ?`
	if err := tx.QueryRowContext(ctx, read, id).Scan(&h.CreatedAt, &h.ExpiresAt); err != nil {
		return nil, fmt.Errorf("read back hold: %w", err)
	}
	return h, nil
}

// GetForUpdateTx fetches a hold by ID with an exclusive row lock held until
// the transaction commits or rolls back. Two confirmations racing on the
// same hold serialize here: the second blocks, then observes whatever state
// the first committed. Returns sql.ErrNoRows when no such hold exists.
func (r *HoldRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, holdID uint64) (*model.Hold, error) {
	const q = `SELECT hold_id, event_id, seat_id, user_id, status, created_at, expires_at
	           FROM holds WHERE hold_id = ? FOR UPDATE`
	var h model.Hold
	err := tx.QueryRowContext(ctx, q, holdID).Scan(
		&h.ID, &h.EventID, &h.SeatID, &h.UserID, &h.Status, &h.CreatedAt, &h.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkReleasedTx transitions a hold from HELD to RELEASED. The status guard
// makes it a no-op on rows that are already terminal.
func (r *HoldRepo) MarkReleasedTx(ctx context.Context, tx *sql.Tx, holdID uint64) error {
	const q = `UPDATE holds SET status = 'RELEASED' WHERE hold_id = ? AND status = 'HELD'`
	if _, err := tx.ExecContext(ctx, q, holdID); err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

// ExpireStaleTx marks any overdue HELD row for (eventID, seatID) as EXPIRED,
// which drops it out of the active-uniqueness domain so a fresh hold can be
// inserted. Returns the number of rows reclaimed (0 or 1 in practice).
func (r *HoldRepo) ExpireStaleTx(ctx context.Context, tx *sql.Tx, eventID, seatID uint64) (int64, error) {
	const q = `UPDATE holds SET status = 'EXPIRED'
	           WHERE event_id = ? AND seat_id = ? AND status = 'HELD' AND expires_at <= UTC_TIMESTAMP()`
	res, err := tx.ExecContext(ctx, q, eventID, seatID)
	if err != nil {
		return 0, fmt.Errorf("expire stale hold: %w", err)
	}
	return res.RowsAffected()
}

// ExpireAllStale reclaims every overdue HELD row regardless of key. It runs
// as a single autocommit statement, so rows currently locked by an in-flight
// confirmation are waited on and then skipped: by the time the lock is
// granted they no longer match the HELD predicate. Used by the background
// sweeper; the per-key variant above covers the lazy path.
func (r *HoldRepo) ExpireAllStale(ctx context.Context) (int64, error) {
	const q = `UPDATE holds SET status = 'EXPIRED'
	           WHERE status = 'HELD' AND expires_at <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("expire stale holds: %w", err)
	}
	return res.RowsAffected()
}
