package memory

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeEmbedding builds a unit vector leaning toward one axis so that
// similarity ordering is predictable under cosine distance.
func fakeEmbedding(axis int, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = 0.01
	}
	v[axis%dims] = 1
	return v
}

func midterm(id string, userID int64, summary string, expiresAt time.Time) MidTermMemory {
	return MidTermMemory{
		ID:        id,
		UserID:    userID,
		ChannelID: 100,
		Summary:   summary,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
}

func TestChromemSearchFiltersByUser(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	future := time.Now().UTC().Add(time.Hour)
	for i := 0; i < 4; i++ {
		mem := midterm(fmt.Sprintf("m%d", i), int64(1+i%2), fmt.Sprintf("summary %d", i), future)
		if err := s.StoreMidterm(ctx, mem, fakeEmbedding(i, 8)); err != nil {
			t.Fatalf("StoreMidterm() error = %v", err)
		}
	}

	got, err := s.SearchMidterm(ctx, fakeEmbedding(0, 8), 1, 10)
	if err != nil {
		t.Fatalf("SearchMidterm() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchMidterm() returned %d results, want 2", len(got))
	}
	for _, mem := range got {
		if mem.UserID != 1 {
			t.Fatalf("result %s belongs to user %d, want 1", mem.ID, mem.UserID)
		}
	}
}

func TestChromemSearchRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	future := time.Now().UTC().Add(time.Hour)
	for i := 0; i < 5; i++ {
		mem := midterm(fmt.Sprintf("m%d", i), 1, fmt.Sprintf("summary %d", i), future)
		if err := s.StoreMidterm(ctx, mem, fakeEmbedding(i, 8)); err != nil {
			t.Fatalf("StoreMidterm() error = %v", err)
		}
	}

	got, err := s.SearchMidterm(ctx, fakeEmbedding(0, 8), 1, 2)
	if err != nil {
		t.Fatalf("SearchMidterm() error = %v", err)
	}
	if len(got) > 2 {
		t.Fatalf("SearchMidterm() returned %d results, want at most 2", len(got))
	}
}

func TestChromemSearchOnEmptyStore(t *testing.T) {
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	got, err := s.SearchMidterm(context.Background(), fakeEmbedding(0, 8), 1, 3)
	if err != nil {
		t.Fatalf("SearchMidterm() on empty store error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("SearchMidterm() on empty store = %v, want empty", got)
	}
}

func TestChromemStoreMidtermUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	future := time.Now().UTC().Add(time.Hour)
	mem := midterm("same-id", 1, "first", future)
	if err := s.StoreMidterm(ctx, mem, fakeEmbedding(0, 8)); err != nil {
		t.Fatalf("StoreMidterm() error = %v", err)
	}
	mem.Summary = "second"
	if err := s.StoreMidterm(ctx, mem, fakeEmbedding(0, 8)); err != nil {
		t.Fatalf("repeat StoreMidterm() error = %v", err)
	}

	got, err := s.SearchMidterm(ctx, fakeEmbedding(0, 8), 1, 10)
	if err != nil {
		t.Fatalf("SearchMidterm() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("SearchMidterm() after upsert = %d records, want 1", len(got))
	}
	if got[0].Summary != "second" {
		t.Fatalf("upserted summary = %q, want %q", got[0].Summary, "second")
	}
}

func TestChromemDeleteExpiredMidterm(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	now := time.Now().UTC()
	expired := midterm("old", 1, "old summary", now.Add(-time.Minute))
	fresh := midterm("fresh", 1, "fresh summary", now.Add(time.Hour))
	if err := s.StoreMidterm(ctx, expired, fakeEmbedding(0, 8)); err != nil {
		t.Fatalf("StoreMidterm() error = %v", err)
	}
	if err := s.StoreMidterm(ctx, fresh, fakeEmbedding(1, 8)); err != nil {
		t.Fatalf("StoreMidterm() error = %v", err)
	}

	if err := s.DeleteExpiredMidterm(ctx); err != nil {
		t.Fatalf("DeleteExpiredMidterm() error = %v", err)
	}
	// Second run with no writes in between must be a no-op.
	if err := s.DeleteExpiredMidterm(ctx); err != nil {
		t.Fatalf("repeat DeleteExpiredMidterm() error = %v", err)
	}

	got, err := s.SearchMidterm(ctx, fakeEmbedding(0, 8), 1, 10)
	if err != nil {
		t.Fatalf("SearchMidterm() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("after sweep got %v, want only fresh", got)
	}

	s.mu.Lock()
	indexed := len(s.midtermExpiry)
	s.mu.Unlock()
	if indexed != 1 {
		t.Fatalf("expiry index holds %d entries after sweep, want 1", indexed)
	}
}

func TestChromemLongtermRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	mem := LongTermMemory{
		ID:        "fact-1",
		UserID:    9,
		Fact:      "prefers coffee over tea",
		Category:  "preferences",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.StoreLongterm(ctx, mem, fakeEmbedding(2, 8)); err != nil {
		t.Fatalf("StoreLongterm() error = %v", err)
	}

	got, err := s.SearchLongterm(ctx, fakeEmbedding(2, 8), 9, 5)
	if err != nil {
		t.Fatalf("SearchLongterm() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("SearchLongterm() = %d results, want 1", len(got))
	}
	if got[0].Fact != mem.Fact || got[0].Category != mem.Category {
		t.Fatalf("SearchLongterm() = %+v, want fact/category preserved", got[0])
	}
}
