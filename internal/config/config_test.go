package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.ShortTermCapacity != 20 {
		t.Fatalf("ShortTermCapacity = %d, want 20", cfg.ShortTermCapacity)
	}
	if cfg.MidtermTTL != 7*24*time.Hour {
		t.Fatalf("MidtermTTL = %v, want 168h", cfg.MidtermTTL)
	}
	if cfg.MidtermSearchLimit != 3 || cfg.LongtermSearchLimit != 5 {
		t.Fatalf("search limits = %d/%d, want 3/5", cfg.MidtermSearchLimit, cfg.LongtermSearchLimit)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("SweepInterval = %v, want 1h", cfg.SweepInterval)
	}
	if cfg.MemoryEmbeddingDim != 1536 {
		t.Fatalf("MemoryEmbeddingDim = %d, want 1536", cfg.MemoryEmbeddingDim)
	}
	if cfg.AIProvider != "auto" {
		t.Fatalf("AIProvider = %q, want auto", cfg.AIProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SHORT_TERM_CAPACITY", "4")
	t.Setenv("MIDTERM_TTL", "48h")
	t.Setenv("SWEEP_INTERVAL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ShortTermCapacity != 4 {
		t.Fatalf("ShortTermCapacity = %d, want 4", cfg.ShortTermCapacity)
	}
	if cfg.MidtermTTL != 48*time.Hour {
		t.Fatalf("MidtermTTL = %v, want 48h", cfg.MidtermTTL)
	}
	if cfg.SweepInterval != 10*time.Minute {
		t.Fatalf("SweepInterval = %v, want 10m", cfg.SweepInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SHORT_TERM_CAPACITY":  "0",
		"MEMORY_EMBEDDING_DIM": "-1",
		"MIDTERM_TTL":          "5s",
		"AI_PROVIDER":          "carrier-pigeon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%s", key, value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_SYSTEM_INSTRUCTION",
		"AI_PROVIDER",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_CHAT_MODEL",
		"OPENAI_EMBED_MODEL",
		"DATABASE_URL",
		"MEMORY_EMBEDDING_DIM",
		"SHORT_TERM_CAPACITY",
		"MIDTERM_TTL",
		"MIDTERM_SEARCH_LIMIT",
		"LONGTERM_SEARCH_LIMIT",
		"SWEEP_INTERVAL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
