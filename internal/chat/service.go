package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/mnemosyne/internal/ai"
	"github.com/ent0n29/mnemosyne/internal/memory"
	"github.com/ent0n29/mnemosyne/internal/observability"
)

// Options tune the retrieval and promotion behavior of the pipeline.
// The defaults match the deployed behavior; they are knobs, not features.
type Options struct {
	MidtermTTL          time.Duration
	MidtermSearchLimit  int
	LongtermSearchLimit int
}

func (o Options) withDefaults() Options {
	if o.MidtermTTL <= 0 {
		o.MidtermTTL = 7 * 24 * time.Hour
	}
	if o.MidtermSearchLimit <= 0 {
		o.MidtermSearchLimit = 3
	}
	if o.LongtermSearchLimit <= 0 {
		o.LongtermSearchLimit = 5
	}
	return o
}

// Service orchestrates one conversational turn: read recent context,
// retrieve relevant memories, generate a reply, record the exchange and
// promote whatever the short-term buffer evicted.
type Service struct {
	ai      ai.Client
	short   *memory.ShortTermStore
	long    memory.LongTermStore
	metrics *observability.Metrics
	opts    Options
}

func NewService(aiClient ai.Client, short *memory.ShortTermStore, long memory.LongTermStore, metrics *observability.Metrics, opts Options) *Service {
	return &Service{
		ai:      aiClient,
		short:   short,
		long:    long,
		metrics: metrics,
		opts:    opts.withDefaults(),
	}
}

// ShortTermContext exposes the raw recent history of a channel for
// presentation-layer reads.
func (s *Service) ShortTermContext(channelID int64) []memory.Turn {
	return s.short.Context(channelID)
}

// ProcessMessage runs one full turn for a user message and returns the
// assistant's reply.
//
// The turn is all-or-nothing up to the recording step: any failure while
// embedding, searching or generating surfaces as ErrEmbedding, ErrStore
// or ErrGeneration with no state mutated. Only after a successful reply
// are the user and assistant turns appended to the short-term buffer, and
// only then does overflow promotion run as a contained side effect that
// can never fail the turn.
func (s *Service) ProcessMessage(ctx context.Context, channelID, userID int64, userMessage string) (string, error) {
	started := time.Now()

	shortContext := s.short.Context(channelID)

	queryEmbedding, err := s.ai.Embed(ctx, userMessage)
	if err != nil {
		s.metrics.TurnFinished("embedding_error", time.Since(started))
		return "", fmt.Errorf("%w: embed query: %v", ErrEmbedding, err)
	}

	midterm, err := s.long.SearchMidterm(ctx, queryEmbedding, userID, s.opts.MidtermSearchLimit)
	if err != nil {
		s.metrics.TurnFinished("store_error", time.Since(started))
		return "", fmt.Errorf("%w: search midterm: %v", ErrStore, err)
	}
	longterm, err := s.long.SearchLongterm(ctx, queryEmbedding, userID, s.opts.LongtermSearchLimit)
	if err != nil {
		s.metrics.TurnFinished("store_error", time.Since(started))
		return "", fmt.Errorf("%w: search longterm: %v", ErrStore, err)
	}

	prompt, history := buildMessages(userMessage, shortContext, midterm, longterm)

	reply, err := s.ai.Generate(ctx, prompt, history)
	if err != nil {
		s.metrics.TurnFinished("generation_error", time.Since(started))
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	now := time.Now().UTC()
	overflow := s.short.Push(channelID, memory.Turn{
		Role:      memory.RoleUser,
		UserID:    userID,
		Content:   userMessage,
		CreatedAt: now,
	})
	s.promoteOverflow(ctx, userID, channelID, overflow)

	overflow = s.short.Push(channelID, memory.Turn{
		Role:      memory.RoleAssistant,
		UserID:    userID,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	})
	s.promoteOverflow(ctx, userID, channelID, overflow)

	s.metrics.TurnFinished("ok", time.Since(started))
	return reply, nil
}

// promoteOverflow turns evicted turns into mid-term memories. Each item
// is embedded and stored independently: a failure is logged and counted,
// the rest of the batch continues, and nothing propagates to the turn.
// The failed count is returned for observation; a nonzero count is a
// soft warning, not an error.
func (s *Service) promoteOverflow(ctx context.Context, userID, channelID int64, overflow []memory.Turn) int {
	failed := 0
	for _, turn := range overflow {
		s.metrics.Eviction()
		summary := fmt.Sprintf("[%s] %s", turn.Role, turn.Content)

		embedding, err := s.ai.Embed(ctx, summary)
		if err != nil {
			log.Printf("promotion: embed overflow turn failed (channel %d): %v", channelID, err)
			s.metrics.Promotion("embed_error")
			failed++
			continue
		}

		now := time.Now().UTC()
		mem := memory.MidTermMemory{
			ID:        uuid.NewString(),
			UserID:    userID,
			ChannelID: channelID,
			Summary:   summary,
			CreatedAt: now,
			ExpiresAt: now.Add(s.opts.MidtermTTL),
		}
		if err := s.long.StoreMidterm(ctx, mem, embedding); err != nil {
			log.Printf("promotion: store midterm failed (channel %d): %v", channelID, err)
			s.metrics.Promotion("store_error")
			failed++
			continue
		}
		s.metrics.Promotion("ok")
	}

	if failed > 0 {
		log.Printf("promotion: %d of %d overflow turns failed (channel %d)", failed, len(overflow), channelID)
	}
	return failed
}

// StoreLongTermFact records a durable fact about a user. This is the
// out-of-band write path; the turn pipeline only ever reads long-term
// memories.
func (s *Service) StoreLongTermFact(ctx context.Context, userID int64, fact, category string) (memory.LongTermMemory, error) {
	embedding, err := s.ai.Embed(ctx, fact)
	if err != nil {
		return memory.LongTermMemory{}, fmt.Errorf("%w: embed fact: %v", ErrEmbedding, err)
	}

	now := time.Now().UTC()
	mem := memory.LongTermMemory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Fact:      fact,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.long.StoreLongterm(ctx, mem, embedding); err != nil {
		return memory.LongTermMemory{}, fmt.Errorf("%w: store longterm: %v", ErrStore, err)
	}
	s.metrics.FactStored()
	return mem, nil
}

// buildMessages assembles the history sent to the completion capability.
// Retrieved memories are surfaced through a single synthetic exchange at
// the head of history: a user message listing long-term facts then
// mid-term summaries, and an assistant acknowledgment. When neither
// retrieval produced anything, history starts directly with the
// short-term turns. The current user message is the prompt and is never
// part of history.
func buildMessages(userMessage string, shortContext []memory.Turn, midterm []memory.MidTermMemory, longterm []memory.LongTermMemory) (ai.ChatMessage, []ai.ChatMessage) {
	var history []ai.ChatMessage

	if len(longterm) > 0 || len(midterm) > 0 {
		var b strings.Builder

		if len(longterm) > 0 {
			b.WriteString("[What we know about this user]\n")
			for _, mem := range longterm {
				fmt.Fprintf(&b, "- %s\n", mem.Fact)
			}
			b.WriteString("\n")
		}
		if len(midterm) > 0 {
			b.WriteString("[Summarizing relevant past conversations]\n")
			for _, mem := range midterm {
				fmt.Fprintf(&b, "- %s\n", mem.Summary)
			}
		}

		history = append(history,
			ai.UserMessage(strings.TrimRight(b.String(), "\n")),
			ai.AssistantMessage("Understood. I will use this context in our conversation."),
		)
	}

	for _, turn := range shortContext {
		if turn.Role == memory.RoleAssistant {
			history = append(history, ai.AssistantMessage(turn.Content))
		} else {
			history = append(history, ai.UserMessage(turn.Content))
		}
	}

	return ai.UserMessage(userMessage), history
}
