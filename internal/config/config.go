package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Retrieval modes selectable via RETRIEVAL_MODE.
const (
	ModeKeyword = "keyword"
	ModeVector  = "vector"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	DBPath    string
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	RetrievalMode  string
	TopK           int
	ChunkMaxSize   int
	ChunkOverlap   int
	ScoreThreshold float64

	EmbeddingBaseURL   string
	EmbeddingModelName string
	QdrantURL          string
	QdrantCollection   string
	QdrantVectorSize   int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env up the tree
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		DBPath:    getEnv("DB_PATH", "./data/studyhall-ai.db"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName: getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:    getEnv("LLM_API_KEY", "dummy-key"),

		RetrievalMode: getEnv("RETRIEVAL_MODE", ModeKeyword),

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "chunks"),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.RetrievalMode != ModeKeyword && cfg.RetrievalMode != ModeVector {
		return nil, fmt.Errorf("RETRIEVAL_MODE must be %q or %q, got %q", ModeKeyword, ModeVector, cfg.RetrievalMode)
	}

	cfg.TopK, err = getEnvInt("TOP_K", 3)
	if err != nil {
		return nil, err
	}
	cfg.ChunkMaxSize, err = getEnvInt("CHUNK_MAX_SIZE", 700)
	if err != nil {
		return nil, err
	}
	cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 100)
	if err != nil {
		return nil, err
	}

	threshold := getEnv("SCORE_THRESHOLD", "0.7")
	cfg.ScoreThreshold, err = strconv.ParseFloat(threshold, 64)
	if err != nil {
		return nil, fmt.Errorf("SCORE_THRESHOLD must be a valid float: %w", err)
	}
	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > 1 {
		return nil, fmt.Errorf("SCORE_THRESHOLD must be within [0,1], got %g", cfg.ScoreThreshold)
	}

	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be greater than 0")
	}
	if cfg.ChunkMaxSize <= 0 {
		return nil, fmt.Errorf("CHUNK_MAX_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	if cfg.ChunkOverlap >= cfg.ChunkMaxSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be smaller than CHUNK_MAX_SIZE")
	}

	// Vector mode needs a sized Qdrant collection; the size must match the
	// embedding model's output dimension.
	if cfg.RetrievalMode == ModeVector {
		vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
		if vectorSizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required in vector mode")
		}
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = vectorSize
	}

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a level name into a slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", level)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return value, nil
}
