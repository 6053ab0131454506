package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// MockClient provides deterministic local replies and embeddings when no
// real provider is configured. Embeddings are hash-seeded unit vectors,
// so identical texts always map to identical vectors; that is enough for
// exercising the pipeline without real semantic similarity.
type MockClient struct {
	dimensions int
}

func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &MockClient{dimensions: dimensions}
}

func (c *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, c.dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

func (c *MockClient) Generate(ctx context.Context, prompt ChatMessage, history []ChatMessage) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	base := strings.TrimSpace(prompt.Content)
	if base == "" {
		base = "I am listening."
	}
	if len(history) == 0 {
		return fmt.Sprintf("I heard you: %s", base), nil
	}

	last := strings.TrimSpace(history[len(history)-1].Content)
	if last == "" {
		return fmt.Sprintf("I heard you: %s", base), nil
	}
	return fmt.Sprintf("I heard you: %s\nI also remember: %s", base, last), nil
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
