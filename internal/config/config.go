package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// SQLite database file holding books and headings.
	DBPath string

	// Auth
	BookgenAPIKey string

	// OpenRouter generation
	OpenRouterAPIKey string
	OpenRouterModel  string
	LLMTimeout       time.Duration

	// Generation retry bound per LLM step.
	MaxAttempts int

	// Job state
	JobTTL time.Duration

	// Logging
	LogLevel string
	LogDir   string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		DBPath: envOr("BOOKGEN_DB", "bookgen.db"),

		BookgenAPIKey: os.Getenv("BOOKGEN_API_KEY"),

		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  envOr("BOOKGEN_MODEL", "deepseek/deepseek-r1-0528:free"),
		LLMTimeout:       envDuration("BOOKGEN_LLM_TIMEOUT", 120*time.Second),

		MaxAttempts: envInt("BOOKGEN_MAX_ATTEMPTS", 3),

		JobTTL: envDuration("BOOKGEN_JOB_TTL", 24*time.Hour),

		LogLevel: envOr("BOOKGEN_LOG_LEVEL", "INFO"),
		LogDir:   envOr("BOOKGEN_LOG_DIR", "logs"),
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.BookgenAPIKey == "" {
		return fmt.Errorf("BOOKGEN_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
