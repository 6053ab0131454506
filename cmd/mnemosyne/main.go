package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ent0n29/mnemosyne/internal/ai"
	"github.com/ent0n29/mnemosyne/internal/chat"
	"github.com/ent0n29/mnemosyne/internal/config"
	"github.com/ent0n29/mnemosyne/internal/httpapi"
	"github.com/ent0n29/mnemosyne/internal/memory"
	"github.com/ent0n29/mnemosyne/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	longTerm, err := memory.NewLongTermStore(ctx, cfg.DatabaseURL, cfg.MemoryEmbeddingDim)
	if err != nil {
		log.Fatalf("long-term store init failed: %v", err)
	}
	defer longTerm.Close()

	var aiClient ai.Client

	tryOpenAI := func() bool {
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return false
		}
		c, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			ChatModel:         cfg.OpenAIChatModel,
			EmbedModel:        cfg.OpenAIEmbedModel,
			EmbeddingDim:      cfg.MemoryEmbeddingDim,
			SystemInstruction: cfg.SystemInstruction,
		})
		if err != nil {
			log.Fatalf("openai client init failed: %v", err)
		}
		aiClient = c
		log.Printf("ai provider: openai (chat=%s embed=%s)", cfg.OpenAIChatModel, cfg.OpenAIEmbedModel)
		return true
	}

	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		if !tryOpenAI() {
			log.Fatalf("AI_PROVIDER=openai but OPENAI_API_KEY is not set")
		}
	case "mock":
		aiClient = ai.NewMockClient(cfg.MemoryEmbeddingDim)
		log.Printf("ai provider: mock")
	case "auto", "":
		if !tryOpenAI() {
			aiClient = ai.NewMockClient(cfg.MemoryEmbeddingDim)
			log.Printf("ai provider: mock (no openai key)")
		}
	default:
		log.Fatalf("invalid AI_PROVIDER: %q (expected auto|openai|mock)", cfg.AIProvider)
	}

	cached, err := ai.NewCachedClient(aiClient, cfg.EmbedCacheBytes)
	if err != nil {
		log.Fatalf("embedding cache init failed: %v", err)
	}
	defer cached.Close()

	shortTerm := memory.NewShortTermStore(cfg.ShortTermCapacity)
	service := chat.NewService(cached, shortTerm, longTerm, metrics, chat.Options{
		MidtermTTL:          cfg.MidtermTTL,
		MidtermSearchLimit:  cfg.MidtermSearchLimit,
		LongtermSearchLimit: cfg.LongtermSearchLimit,
	})

	api := httpapi.New(cfg, service)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	sweeper := memory.NewSweeper(longTerm, cfg.SweepInterval)
	sweeper.SetSweepHook(metrics.SweepFinished)
	sweeper.Start(runCtx)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
