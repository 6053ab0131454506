package memory

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically removes expired mid-term memories. It runs for the
// lifetime of its context, independent of any turn; a failed sweep is
// logged and retried on the next tick, never fatal to the process.
type Sweeper struct {
	store    LongTermStore
	interval time.Duration
	onSweep  func(err error)
}

func NewSweeper(store LongTermStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, interval: interval}
}

// SetSweepHook installs an observer invoked after every sweep with its
// outcome. Used for metrics and tests.
func (s *Sweeper) SetSweepHook(hook func(err error)) {
	s.onSweep = hook
}

// Start launches the sweep loop in its own goroutine. The loop stops when
// ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	err := s.store.DeleteExpiredMidterm(ctx)
	if err != nil {
		log.Printf("memory sweep failed (will retry next tick): %v", err)
	}
	if s.onSweep != nil {
		s.onSweep(err)
	}
}
