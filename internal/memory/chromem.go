package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

const (
	midtermCollection  = "midterm_memory"
	longtermCollection = "longterm_memory"
)

// ChromemStore is an embedded LongTermStore backed by chromem-go. It keeps
// everything in process memory, which makes it the default for local and
// dev runs where no Postgres is configured.
//
// chromem metadata filters are exact-match only, so the store keeps its
// own id -> expiry index to drive the sweep; expired records are also
// filtered out lazily at read time in case a sweep has not run yet.
type ChromemStore struct {
	db       *chromem.DB
	midterm  *chromem.Collection
	longterm *chromem.Collection

	mu            sync.Mutex
	midtermExpiry map[string]time.Time
}

func NewChromemStore() (*ChromemStore, error) {
	db := chromem.NewDB()

	// Embeddings are provided by the caller, so no embedding func.
	mid, err := db.GetOrCreateCollection(midtermCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s collection: %w", midtermCollection, err)
	}
	long, err := db.GetOrCreateCollection(longtermCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s collection: %w", longtermCollection, err)
	}

	return &ChromemStore{
		db:            db,
		midterm:       mid,
		longterm:      long,
		midtermExpiry: make(map[string]time.Time),
	}, nil
}

func (s *ChromemStore) StoreMidterm(ctx context.Context, mem MidTermMemory, embedding []float32) error {
	doc := chromem.Document{
		ID:        mem.ID,
		Content:   mem.Summary,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":    strconv.FormatInt(mem.UserID, 10),
			"channel_id": strconv.FormatInt(mem.ChannelID, 10),
			"created_at": mem.CreatedAt.UTC().Format(time.RFC3339),
			"expires_at": mem.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}
	if err := s.midterm.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("store midterm %s: %w", mem.ID, err)
	}

	s.mu.Lock()
	s.midtermExpiry[mem.ID] = mem.ExpiresAt
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) StoreLongterm(ctx context.Context, mem LongTermMemory, embedding []float32) error {
	doc := chromem.Document{
		ID:        mem.ID,
		Content:   mem.Fact,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":    strconv.FormatInt(mem.UserID, 10),
			"category":   mem.Category,
			"created_at": mem.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at": mem.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := s.longterm.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("store longterm %s: %w", mem.ID, err)
	}
	return nil
}

func (s *ChromemStore) SearchMidterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]MidTermMemory, error) {
	results, err := s.query(ctx, s.midterm, embedding, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search midterm: %w", err)
	}

	now := time.Now().UTC()
	var memories []MidTermMemory
	for _, r := range results {
		mem := MidTermMemory{
			ID:        r.ID,
			UserID:    parseID(r.Metadata["user_id"]),
			ChannelID: parseID(r.Metadata["channel_id"]),
			Summary:   r.Content,
			CreatedAt: parseTime(r.Metadata["created_at"]),
			ExpiresAt: parseTime(r.Metadata["expires_at"]),
		}
		if !mem.ExpiresAt.IsZero() && now.After(mem.ExpiresAt) {
			continue
		}
		memories = append(memories, mem)
	}
	return memories, nil
}

func (s *ChromemStore) SearchLongterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]LongTermMemory, error) {
	results, err := s.query(ctx, s.longterm, embedding, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search longterm: %w", err)
	}

	var memories []LongTermMemory
	for _, r := range results {
		memories = append(memories, LongTermMemory{
			ID:        r.ID,
			UserID:    parseID(r.Metadata["user_id"]),
			Fact:      r.Content,
			Category:  r.Metadata["category"],
			CreatedAt: parseTime(r.Metadata["created_at"]),
			UpdatedAt: parseTime(r.Metadata["updated_at"]),
		})
	}
	return memories, nil
}

// query runs a similarity search scoped to one user. chromem rejects
// nResults larger than the number of matching documents, so the limit is
// clamped to the collection size and then walked down until the query
// succeeds or the matching set turns out to be empty.
func (s *ChromemStore) query(ctx context.Context, col *chromem.Collection, embedding []float32, userID int64, limit int) ([]chromem.Result, error) {
	if count := col.Count(); count < limit {
		limit = count
	}
	where := map[string]string{"user_id": strconv.FormatInt(userID, 10)}

	for ; limit >= 1; limit-- {
		results, err := col.QueryEmbedding(ctx, embedding, limit, where, nil)
		if err == nil {
			return results, nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "nResults") && !strings.Contains(msg, "number of documents") {
			return nil, err
		}
	}
	return nil, nil
}

func (s *ChromemStore) DeleteExpiredMidterm(ctx context.Context) error {
	now := time.Now().UTC()

	s.mu.Lock()
	var expired []string
	for id, expiresAt := range s.midtermExpiry {
		if now.After(expiresAt) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	if len(expired) == 0 {
		return nil
	}

	if err := s.midterm.Delete(ctx, nil, nil, expired...); err != nil {
		return fmt.Errorf("delete expired midterm: %w", err)
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.midtermExpiry, id)
	}
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Close() error {
	// chromem keeps everything in memory; nothing to release.
	return nil
}

func parseID(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}
