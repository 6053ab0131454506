package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the memory service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	AIProvider        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAIEmbedModel  string
	SystemInstruction string
	EmbedCacheBytes   int64

	DatabaseURL        string
	MemoryEmbeddingDim int

	ShortTermCapacity   int
	MidtermTTL          time.Duration
	MidtermSearchLimit  int
	LongtermSearchLimit int
	SweepInterval       time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "mnemosyne"),
		AllowAnyOrigin:      false,
		AIProvider:          envOrDefault("AI_PROVIDER", "auto"),
		OpenAIAPIKey:        trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:       trimmedEnv("OPENAI_BASE_URL"),
		OpenAIChatModel:     envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o"),
		OpenAIEmbedModel:    envOrDefault("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		SystemInstruction:   trimmedEnv("APP_SYSTEM_INSTRUCTION"),
		EmbedCacheBytes:     64 << 20,
		DatabaseURL:         trimmedEnv("DATABASE_URL"),
		MemoryEmbeddingDim:  1536,
		ShortTermCapacity:   20,
		MidtermTTL:          7 * 24 * time.Hour,
		MidtermSearchLimit:  3,
		LongtermSearchLimit: 5,
		SweepInterval:       time.Hour,
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MidtermTTL, err = durationFromEnv("MIDTERM_TTL", cfg.MidtermTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval, err = durationFromEnv("SWEEP_INTERVAL", cfg.SweepInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryEmbeddingDim, err = intFromEnv("MEMORY_EMBEDDING_DIM", cfg.MemoryEmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.ShortTermCapacity, err = intFromEnv("SHORT_TERM_CAPACITY", cfg.ShortTermCapacity)
	if err != nil {
		return Config{}, err
	}
	cfg.MidtermSearchLimit, err = intFromEnv("MIDTERM_SEARCH_LIMIT", cfg.MidtermSearchLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.LongtermSearchLimit, err = intFromEnv("LONGTERM_SEARCH_LIMIT", cfg.LongtermSearchLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.MemoryEmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("MEMORY_EMBEDDING_DIM must be positive")
	}
	if cfg.ShortTermCapacity <= 0 {
		return Config{}, fmt.Errorf("SHORT_TERM_CAPACITY must be positive")
	}
	if cfg.MidtermTTL < time.Minute {
		return Config{}, fmt.Errorf("MIDTERM_TTL must be at least 1m")
	}
	if cfg.SweepInterval < time.Second {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be at least 1s")
	}
	if cfg.MidtermSearchLimit <= 0 || cfg.LongtermSearchLimit <= 0 {
		return Config{}, fmt.Errorf("search limits must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "", "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid AI_PROVIDER: %q (expected auto|openai|mock)", cfg.AIProvider)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
