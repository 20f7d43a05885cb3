package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
	S3Bucket       string
	UploadsPrefix  string
	UploadsEnabled bool

	GeminiURL    string
	GeminiAPIKey string
	GeminiModel  string

	OracleTimeoutSeconds int
	RequestBudgetSeconds int
	MaxBatchSize         int
	MaxFileBytes         int
	ClassifyConcurrency  int

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int

	ResultsDSN   string
	TaxonomyPath string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		S3Endpoint:     mustEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:    mustEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    mustEnv("S3_SECRET_KEY", ""),
		S3UseSSL:       mustEnvBool("S3_USE_SSL", false),
		S3Bucket:       mustEnv("S3_BUCKET", "risk-navigator-documents"),
		UploadsPrefix:  mustEnv("UPLOADS_PREFIX", "documents"),
		UploadsEnabled: mustEnvBool("UPLOADS_ENABLED", true),

		GeminiURL:    mustEnv("GEMINI_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey: mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		OracleTimeoutSeconds: mustEnvInt("ORACLE_TIMEOUT_SECONDS", 60),
		RequestBudgetSeconds: mustEnvInt("REQUEST_BUDGET_SECONDS", 240),
		MaxBatchSize:         mustEnvInt("MAX_BATCH_SIZE", 20),
		MaxFileBytes:         mustEnvInt("MAX_FILE_BYTES", 15*1024*1024),
		ClassifyConcurrency:  mustEnvInt("CLASSIFY_CONCURRENCY", 4),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 32),

		ResultsDSN:   mustEnv("RESULTS_DSN", ""),
		TaxonomyPath: mustEnv("TAXONOMY_PATH", ""),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
