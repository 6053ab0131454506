package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore is the durable LongTermStore backed by PostgreSQL with
// pgvector. Mid-term and long-term records live in separate tables
// because only mid-term rows carry an expiry.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string, embeddingDim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool, embeddingDim); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS midterm_memories (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			channel_id BIGINT NOT NULL,
			summary TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);`, embeddingDim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS longterm_memories (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			fact TEXT NOT NULL,
			category TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS idx_midterm_user ON midterm_memories (user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_midterm_expires ON midterm_memories (expires_at);`,
		`CREATE INDEX IF NOT EXISTS idx_longterm_user ON longterm_memories (user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) StoreMidterm(ctx context.Context, mem MidTermMemory, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO midterm_memories (id, user_id, channel_id, summary, embedding, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			summary = EXCLUDED.summary,
			embedding = EXCLUDED.embedding,
			expires_at = EXCLUDED.expires_at`,
		mem.ID,
		mem.UserID,
		mem.ChannelID,
		mem.Summary,
		pgvector.NewVector(embedding),
		mem.CreatedAt,
		mem.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("store midterm %s: %w", mem.ID, err)
	}
	return nil
}

func (s *PostgresStore) StoreLongterm(ctx context.Context, mem LongTermMemory, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO longterm_memories (id, user_id, fact, category, embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			fact = EXCLUDED.fact,
			category = EXCLUDED.category,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`,
		mem.ID,
		mem.UserID,
		mem.Fact,
		mem.Category,
		pgvector.NewVector(embedding),
		mem.CreatedAt,
		mem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store longterm %s: %w", mem.ID, err)
	}
	return nil
}

func (s *PostgresStore) SearchMidterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]MidTermMemory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, channel_id, summary, created_at, expires_at
		 FROM midterm_memories
		 WHERE user_id = $2 AND expires_at > now() AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding),
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search midterm: %w", err)
	}
	defer rows.Close()

	var memories []MidTermMemory
	for rows.Next() {
		var m MidTermMemory
		if err := rows.Scan(&m.ID, &m.UserID, &m.ChannelID, &m.Summary, &m.CreatedAt, &m.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan midterm row: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate midterm rows: %w", err)
	}
	return memories, nil
}

func (s *PostgresStore) SearchLongterm(ctx context.Context, embedding []float32, userID int64, limit int) ([]LongTermMemory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, fact, category, created_at, updated_at
		 FROM longterm_memories
		 WHERE user_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding),
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search longterm: %w", err)
	}
	defer rows.Close()

	var memories []LongTermMemory
	for rows.Next() {
		var m LongTermMemory
		if err := rows.Scan(&m.ID, &m.UserID, &m.Fact, &m.Category, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan longterm row: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate longterm rows: %w", err)
	}
	return memories, nil
}

func (s *PostgresStore) DeleteExpiredMidterm(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM midterm_memories WHERE expires_at < now()`)
	if err != nil {
		return fmt.Errorf("delete expired midterm: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
