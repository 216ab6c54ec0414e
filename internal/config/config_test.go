package config_test

import (
	"testing"

	"jobportal/ingestion-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ingest")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	for _, v := range []string{"INGESTION_PORT", "SYNC_INTERVAL_HOURS", "REFINE_CONCURRENCY", "GEMINI_API_KEY"} {
		t.Setenv(v, "")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8083" {
		t.Errorf("Port = %q, want 8083", cfg.Port)
	}
	if cfg.SyncIntervalHours != 6 {
		t.Errorf("SyncIntervalHours = %d, want 6", cfg.SyncIntervalHours)
	}
	if cfg.RefineConcurrency != 1 {
		t.Errorf("RefineConcurrency = %d, want 1", cfg.RefineConcurrency)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ingest")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	for _, v := range []string{"0", "11", "lots"} {
		t.Setenv("REFINE_CONCURRENCY", v)
		if _, err := config.Load(); err == nil {
			t.Errorf("REFINE_CONCURRENCY=%q: expected error", v)
		}
	}
}
