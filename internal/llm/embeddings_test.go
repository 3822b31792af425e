package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantVectors  int
		wantErr      bool
	}{
		{
			name:         "successful embedding",
			texts:        []string{"first chunk", "second chunk"},
			expectedSize: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				var reqBody EmbeddingsRequest
				if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if len(reqBody.Input) != 2 {
					t.Errorf("input = %v, want 2 texts", reqBody.Input)
				}

				resp := EmbeddingsResponse{Data: []EmbeddingData{
					{Embedding: []float64{0.1, 0.2, 0.3}},
					{Embedding: []float64{0.4, 0.5, 0.6}},
				}}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantVectors: 2,
		},
		{
			name:         "count mismatch",
			texts:        []string{"first chunk", "second chunk"},
			expectedSize: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := EmbeddingsResponse{Data: []EmbeddingData{
					{Embedding: []float64{0.1, 0.2, 0.3}},
				}}
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:         "size mismatch",
			texts:        []string{"first chunk"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := EmbeddingsResponse{Data: []EmbeddingData{
					{Embedding: []float64{0.1, 0.2, 0.3}},
				}}
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"first chunk"},
			expectedSize: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", tt.expectedSize)

			vectors, err := client.EmbedTexts(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(vectors) != tt.wantVectors {
				t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(vectors), tt.wantVectors)
			}
			for i, vec := range vectors {
				if len(vec) != tt.expectedSize {
					t.Errorf("vector %d has size %d, want %d", i, len(vec), tt.expectedSize)
				}
			}
		})
	}
}

func TestEmbeddingsClient_EmbedTexts_EmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8081", "test-key", "test-model", 3)

	if _, err := client.EmbedTexts(context.Background(), nil); err == nil {
		t.Error("EmbedTexts() with empty input expected error, got nil")
	}
}
