package config

import (
	"log/slog"
	"testing"
)

// setBaseEnv points the database at a temp directory so Load does not touch
// the working tree.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PATH", t.TempDir()+"/test.db")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.RetrievalMode != ModeKeyword {
		t.Errorf("RetrievalMode = %q, want %q", cfg.RetrievalMode, ModeKeyword)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.ChunkMaxSize != 700 || cfg.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d, want 700/100", cfg.ChunkMaxSize, cfg.ChunkOverlap)
	}
	if cfg.ScoreThreshold != 0.7 {
		t.Errorf("ScoreThreshold = %g, want 0.7", cfg.ScoreThreshold)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("API_PORT", "8088")
	t.Setenv("TOP_K", "5")
	t.Setenv("CHUNK_MAX_SIZE", "900")
	t.Setenv("CHUNK_OVERLAP", "150")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "8088" {
		t.Errorf("APIPort = %q, want 8088", cfg.APIPort)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.ChunkMaxSize != 900 || cfg.ChunkOverlap != 150 {
		t.Errorf("chunking = %d/%d, want 900/150", cfg.ChunkMaxSize, cfg.ChunkOverlap)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad retrieval mode", "RETRIEVAL_MODE", "hybrid"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"non-numeric top k", "TOP_K", "three"},
		{"zero top k", "TOP_K", "0"},
		{"zero chunk size", "CHUNK_MAX_SIZE", "0"},
		{"negative overlap", "CHUNK_OVERLAP", "-1"},
		{"threshold above one", "SCORE_THRESHOLD", "1.5"},
		{"non-numeric threshold", "SCORE_THRESHOLD", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s expected error, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CHUNK_MAX_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	if _, err := Load(); err == nil {
		t.Error("Load() with overlap == chunk size expected error, got nil")
	}
}

func TestLoad_VectorModeRequiresVectorSize(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RETRIEVAL_MODE", ModeVector)

	if _, err := Load(); err == nil {
		t.Error("Load() in vector mode without QDRANT_VECTOR_SIZE expected error, got nil")
	}

	t.Setenv("QDRANT_VECTOR_SIZE", "768")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantVectorSize != 768 {
		t.Errorf("QdrantVectorSize = %d, want 768", cfg.QdrantVectorSize)
	}
}

func TestLoad_KeywordModeIgnoresVectorSize(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RETRIEVAL_MODE", ModeKeyword)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantVectorSize != 0 {
		t.Errorf("QdrantVectorSize = %d, want 0 in keyword mode", cfg.QdrantVectorSize)
	}
}
