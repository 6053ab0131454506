package memory

import (
	"context"
	"strings"
)

// NewLongTermStore creates a postgres-backed store when configured,
// otherwise an embedded chromem store.
func NewLongTermStore(ctx context.Context, databaseURL string, embeddingDim int) (LongTermStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewChromemStore()
	}
	return NewPostgresStore(ctx, databaseURL, embeddingDim)
}
