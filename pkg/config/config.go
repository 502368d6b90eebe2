// Package config holds runtime settings for the honeypot API.
// Everything is configurable via environment variables; a .env file in
// the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds global settings for the honeypot service.
type Config struct {
	// === HTTP surface ===
	Port           string // Listen port (default "8000")
	APIKey         string // Required X-API-Key value; empty disables auth (dev only)
	RateLimitMax   int    // Requests per source IP per window (default 200)
	RateLimitWin   time.Duration
	RequestTimeout time.Duration // Per-request budget for /analyze

	// === Reply backends ===
	// The primary answers first; the secondary takes over on rate limits
	// and timeouts.
	PrimaryProvider  string // "gemini" (default), "openai", "groq", "ollama", "anthropic"
	PrimaryAPIKey    string
	PrimaryModel     string

	SecondaryProvider string // empty disables the secondary
	SecondaryAPIKey   string
	SecondaryModel    string

	BaseURLOverride string // Custom OpenAI-compatible endpoint for the primary

	ContextTurns     int           // History window fed to the persona prompt
	RetryBackoff     time.Duration // Pause before the primary's second chance
	BackendTimeout   time.Duration // Budget for one completion call; overruns fail over
	MaxBackendCalls  int           // Concurrent LLM call cap
	TemplateFallback bool          // Canned replies when every backend is down

	// === Detection ===
	RuleFile         string   // Optional YAML extension rules; malformed is fatal
	ExtraSafeDomains []string // Domains never reported as phishing, on top of the built-ins
	EnableSemantics  bool     // Embedding-similarity signal (requires Ollama)
	OllamaURL       string
	EmbeddingModel  string
	SemanticCutoff  float64

	// === Reporting ===
	CallbackURL string // Finalized-session POST target; empty disables
	ArchivePath string // sqlite archive location; empty disables
}

// DefaultCallbackURL is the evaluation endpoint finalized results go to
// unless overridden.
const DefaultCallbackURL = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"

// NewDefaultConfig builds a Config from the environment. A .env file is
// merged in first, without overriding variables already set.
func NewDefaultConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           GetEnv("HONEYPOT_PORT", "8000"),
		APIKey:         GetEnv("HONEYPOT_API_KEY", ""),
		RateLimitMax:   GetEnvInt("HONEYPOT_RATE_LIMIT_MAX", 200),
		RateLimitWin:   time.Duration(GetEnvInt("HONEYPOT_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RequestTimeout: time.Duration(GetEnvInt("HONEYPOT_REQUEST_TIMEOUT_SECONDS", 75)) * time.Second,

		PrimaryProvider: GetEnv("HONEYPOT_PRIMARY_PROVIDER", "gemini"),
		PrimaryAPIKey:   GetEnv("HONEYPOT_PRIMARY_API_KEY", GetEnv("GOOGLE_API_KEY", "")),
		PrimaryModel:    GetEnv("HONEYPOT_PRIMARY_MODEL", ""),

		SecondaryProvider: GetEnv("HONEYPOT_SECONDARY_PROVIDER", ""),
		SecondaryAPIKey:   GetEnv("HONEYPOT_SECONDARY_API_KEY", GetEnv("ANTHROPIC_API_KEY", "")),
		SecondaryModel:    GetEnv("HONEYPOT_SECONDARY_MODEL", ""),

		BaseURLOverride: GetEnv("HONEYPOT_PRIMARY_BASE_URL", ""),

		ContextTurns:     clampInt(GetEnvInt("HONEYPOT_CONTEXT_TURNS", 6), 1, 100),
		RetryBackoff:     time.Duration(GetEnvInt("HONEYPOT_RETRY_BACKOFF_MS", 2000)) * time.Millisecond,
		BackendTimeout:   time.Duration(GetEnvInt("HONEYPOT_BACKEND_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxBackendCalls:  clampInt(GetEnvInt("HONEYPOT_MAX_BACKEND_CALLS", 32), 1, 1024),
		TemplateFallback: GetEnvBool("HONEYPOT_TEMPLATE_FALLBACK", false),

		RuleFile:         GetEnv("HONEYPOT_RULE_FILE", ""),
		ExtraSafeDomains: GetEnvSlice("HONEYPOT_SAFE_DOMAINS", nil),
		EnableSemantics:  GetEnvBool("HONEYPOT_ENABLE_SEMANTICS", false),
		OllamaURL:       GetEnv("HONEYPOT_OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:  GetEnv("HONEYPOT_EMBEDDING_MODEL", "embeddinggemma"),
		SemanticCutoff:  GetEnvFloat("HONEYPOT_SEMANTIC_CUTOFF", 0.70),

		CallbackURL: GetEnv("HONEYPOT_CALLBACK_URL", DefaultCallbackURL),
		ArchivePath: GetEnv("HONEYPOT_ARCHIVE_PATH", "honeypot_sessions.db"),
	}
}

// clampInt ensures a value is within bounds.
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
