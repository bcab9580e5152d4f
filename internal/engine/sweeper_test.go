package engine

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/event-seat-booking/internal/repository"
)

func TestSweeperReclaimsOnTick(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	swept := make(chan struct{})
	mock.ExpectExec("UPDATE holds SET status = 'EXPIRED'").
		WillReturnResult(sqlmock.NewResult(0, 3))

	s := NewSweeper(repository.NewHoldRepo(db), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		s.Run(ctx)
		close(swept)
	}()

	// Wait until the sweep statement has executed at least once, then stop.
	deadline := time.After(2 * time.Second)
	for {
		if mock.ExpectationsWereMet() == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never executed the reclamation statement")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSweeper(repository.NewHoldRepo(db), 0)
	require.Equal(t, time.Minute, s.interval)
}
