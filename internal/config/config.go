package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerHost string
	ServerPort string

	// Transcript source (SerpAPI)
	SerpAPIKey     string
	TranscriptLang string

	// Embedding service (OpenAI-compatible endpoint)
	EmbeddingAPIKey    string
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int

	// Chunking
	ChunkWindowSeconds  float64
	ChunkOverlapSeconds float64
	ChunkMaxChars       int

	// Build pipeline
	EmbedRetries        int
	EmbedBackoffMs      int
	BuildTimeoutSeconds int

	// Vector search
	SearchDefaultK   int
	SearchMaxK       int
	SearchMinScore   float64
	ANNThreshold     int
	ANNProbeFraction float64

	// Index cache
	CacheBackend    string // "memory" or "redis"
	CacheTTLMinutes int
	RedisURL        string

	// Optional Postgres persistence
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Observability
	JaegerEndpoint string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "localhost"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		SerpAPIKey:     getEnv("SERPAPI_API_KEY", ""),
		TranscriptLang: getEnv("TRANSCRIPT_LANG", "en"),

		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081/v1"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 384),

		ChunkWindowSeconds:  getEnvFloat("CHUNK_WINDOW_SECONDS", 35),
		ChunkOverlapSeconds: getEnvFloat("CHUNK_OVERLAP_SECONDS", 5),
		ChunkMaxChars:       getEnvInt("CHUNK_MAX_CHARS", 1000),

		EmbedRetries:        getEnvInt("EMBED_RETRIES", 3),
		EmbedBackoffMs:      getEnvInt("EMBED_BACKOFF_MS", 500),
		BuildTimeoutSeconds: getEnvInt("BUILD_TIMEOUT_SECONDS", 120),

		SearchDefaultK:   getEnvInt("SEARCH_DEFAULT_K", 5),
		SearchMaxK:       getEnvInt("SEARCH_MAX_K", 20),
		SearchMinScore:   getEnvFloat("SEARCH_MIN_SCORE", 0.1),
		ANNThreshold:     getEnvInt("ANN_THRESHOLD", 256),
		ANNProbeFraction: getEnvFloat("ANN_PROBE_FRACTION", 0.35),

		CacheBackend:    getEnv("CACHE_BACKEND", "memory"),
		CacheTTLMinutes: getEnvInt("CACHE_TTL_MINUTES", 60),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),

		DBEnabled:  getEnvBool("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "clipseek"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	if cfg.SerpAPIKey == "" {
		return nil, fmt.Errorf("SERPAPI_API_KEY is required")
	}
	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingDimension)
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, fmt.Errorf("CACHE_BACKEND must be \"memory\" or \"redis\", got %q", cfg.CacheBackend)
	}

	return cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
