// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const maxRefineConcurrency = 10

// Config holds all runtime configuration for the ingestion service.
type Config struct {
	Port              string
	DatabaseURL       string
	RedisURL          string
	GeminiAPIKey      string // empty disables AI assistance; every caller falls back
	GeminiAPIURL      string
	SyncIntervalHours int // how often the cron pipeline fires
	RefineConcurrency int // bounded worker pool size for bulk refinement
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	interval := 6
	if s := os.Getenv("SYNC_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SYNC_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	concurrency := 1
	if s := os.Getenv("REFINE_CONCURRENCY"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxRefineConcurrency {
			return nil, fmt.Errorf("REFINE_CONCURRENCY must be between 1 and %d, got %q", maxRefineConcurrency, s)
		}
		concurrency = v
	}

	apiURL := os.Getenv("GEMINI_API_URL")
	if apiURL == "" {
		apiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	}

	port := os.Getenv("INGESTION_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:              port,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiAPIURL:      apiURL,
		SyncIntervalHours: interval,
		RefineConcurrency: concurrency,
	}, nil
}
