package memory

import (
	"context"
	"time"
)

// Role labels who produced a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one user or assistant message held in short-term memory.
// Turns are ephemeral: they live only in the short-term buffer of the
// channel that received them.
type Turn struct {
	Role      Role      `json:"role"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MidTermMemory is a TTL'd summary produced by promoting an evicted Turn.
type MidTermMemory struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ChannelID int64     `json:"channel_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LongTermMemory is a durable fact about a user. It is written outside
// the turn pipeline and never expires.
type LongTermMemory struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Fact      string    `json:"fact"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LongTermStore persists embedded memories and retrieves them by vector
// similarity. Mid-term and long-term records live in separate namespaces
// because their lifecycles differ: mid-term summaries expire, long-term
// facts do not.
//
// Store operations are idempotent upserts keyed by memory ID. Search
// returns at most limit records belonging to userID, most similar first.
type LongTermStore interface {
	StoreMidterm(ctx context.Context, mem MidTermMemory, embedding []float32) error
	StoreLongterm(ctx context.Context, mem LongTermMemory, embedding []float32) error
	SearchMidterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]MidTermMemory, error)
	SearchLongterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]LongTermMemory, error)

	// DeleteExpiredMidterm removes every mid-term record whose expiry is
	// in the past. Safe to call repeatedly; long-term records are never
	// touched.
	DeleteExpiredMidterm(ctx context.Context) error

	Close() error
}
