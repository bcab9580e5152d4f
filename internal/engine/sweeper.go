package engine

import (
	"context"
	"log"
	"time"

	"github.com/avolkov/event-seat-booking/internal/repository"
)

// Sweeper periodically reclaims overdue holds across the whole table,
// complementing the lazy per-key reclamation done on the hold path. The
// sweep is one UPDATE guarded by status and expiry, so it is safe to run
// concurrently with confirmations: a row locked by an in-flight confirm is
// waited on and, once released, no longer matches the HELD predicate.
type Sweeper struct {
	holds    *repository.HoldRepo
	interval time.Duration
}

// NewSweeper builds a sweeper over the hold ledger. Non-positive intervals
// fall back to one minute.
func NewSweeper(holds *repository.HoldRepo, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{holds: holds, interval: interval}
}

// Run sweeps on every tick until ctx is cancelled. Errors are logged and
// the loop keeps going; a failed sweep only delays reclamation, it never
// loses anything, because expiry is a declarative field on the hold.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("sweeper: reclaiming expired holds every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			n, err := s.holds.ExpireAllStale(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: reclaimed %d expired hold(s)", n)
			}
		}
	}
}
