package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	APITokenHMAC  string
	CORSOrigins   []string

	// Query engine
	MaxQueryResults  int
	MaxEvidenceDocs  int
	CandidateFetch   int
	RawExcerptLimit  int

	// Oracle (LLM) configuration
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	OracleTimeout   time.Duration

	// Answer cache
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	AnswerCacheTTL time.Duration

	// Certificate expiry notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	ExpiryWindowDays  int

	// Per-organization rate limiting on the query API. Zero disables it.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		APITokenHMAC: getEnv("API_TOKEN_HMAC_SECRET", ""),
		CORSOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		MaxQueryResults: getEnvAsInt("MAX_QUERY_RESULTS", 100),
		MaxEvidenceDocs: getEnvAsInt("MAX_EVIDENCE_DOCS", 20),
		CandidateFetch:  getEnvAsInt("CANDIDATE_FETCH_LIMIT", 100),
		RawExcerptLimit: getEnvAsInt("RAW_EXCERPT_LIMIT", 2000),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OracleTimeout: getEnvAsDuration("ORACLE_TIMEOUT", 30*time.Second),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		AnswerCacheTTL: getEnvAsDuration("ANSWER_CACHE_TTL", 10*time.Minute),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "OccuHealth AI"),
		ExpiryWindowDays:  getEnvAsInt("EXPIRY_WINDOW_DAYS", 30),

		RateLimitPerSec: getEnvAsFloat("RATE_LIMIT_PER_SEC", 5),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
