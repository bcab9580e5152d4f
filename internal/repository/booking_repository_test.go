package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingTx(t *testing.T) (*sql.Tx, sqlmock.Sqlmock, *BookingRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx, mock, NewBookingRepo(db)
}

func TestHasConfirmedLockedTxTakesSharedLock(t *testing.T) {
	tx, mock, repo := newBookingTx(t)

	// The hold-path check must lock what it reads; a snapshot read would
	// let a booking commit between the check and the hold insert.
	mock.ExpectQuery(`SELECT 1 FROM bookings WHERE event_id = \? AND seat_id = \? AND status = 'CONFIRMED' FOR SHARE`).
		WithArgs(uint64(7), uint64(42)).
		WillReturnError(sql.ErrNoRows)

	booked, err := repo.HasConfirmedLockedTx(context.Background(), tx, 7, 42)
	require.NoError(t, err)
	assert.False(t, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasConfirmedLockedTxSeesExistingBooking(t *testing.T) {
	tx, mock, repo := newBookingTx(t)

	mock.ExpectQuery("SELECT 1 FROM bookings .*FOR SHARE").
		WithArgs(uint64(7), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	booked, err := repo.HasConfirmedLockedTx(context.Background(), tx, 7, 42)
	require.NoError(t, err)
	assert.True(t, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}
