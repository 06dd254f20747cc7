package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the API server and the CLI.
type Config struct {
	// HTTP Server
	Port string

	// Completion provider
	LLMProvider       string
	LLMModel          string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	CompletionTimeout time.Duration

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool

	// Logging
	LogLevel  string
	LogFormat string

	// Archive
	ArchiveProject string
	ArchiveDataset string
	ArchiveBucket  string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),

		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:          getEnv("LLM_MODEL", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 0),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		ArchiveProject: getEnv("ARCHIVE_PROJECT", ""),
		ArchiveDataset: getEnv("ARCHIVE_DATASET", "budgemon"),
		ArchiveBucket:  getEnv("ARCHIVE_BUCKET", ""),
	}
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// ArchiveEnabled reports whether any archive sink is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveProject != "" || c.ArchiveBucket != ""
}

// Validate validates the configuration and returns an error if invalid.
// A missing API key is not an error: the server starts and answers 500.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LLMProvider {
	case "gemini", "openai":
	default:
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of [gemini openai]", c.LLMProvider))
	}

	if c.CompletionTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid completion timeout %v: must not be negative", c.CompletionTimeout))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'console' or 'json'", c.LogFormat))
	}

	if c.ArchiveProject != "" && c.ArchiveDataset == "" {
		errors = append(errors, "archive dataset cannot be empty when ARCHIVE_PROJECT is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
