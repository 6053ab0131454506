package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type sweepCountingStore struct {
	LongTermStore

	mu    sync.Mutex
	calls int
	err   error
}

func (s *sweepCountingStore) DeleteExpiredMidterm(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *sweepCountingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSweeperRunsOnInterval(t *testing.T) {
	store := &sweepCountingStore{}
	s := NewSweeper(store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for store.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSweeperKeepsRunningAfterFailure(t *testing.T) {
	store := &sweepCountingStore{err: errors.New("store unavailable")}
	s := NewSweeper(store, 10*time.Millisecond)

	var mu sync.Mutex
	var outcomes []error
	s.SetSweepHook(func(err error) {
		mu.Lock()
		outcomes = append(outcomes, err)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for store.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper stopped retrying after failure: %d calls", store.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, err := range outcomes {
		if !errors.Is(err, store.err) {
			t.Fatalf("sweep hook error = %v, want %v", err, store.err)
		}
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	store := &sweepCountingStore{}
	s := NewSweeper(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for store.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper never ran")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()

	time.Sleep(20 * time.Millisecond)
	after := store.count()
	time.Sleep(30 * time.Millisecond)
	if store.count() != after {
		t.Fatalf("sweeper kept running after cancel")
	}
}
