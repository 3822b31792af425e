package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/storage"
	"studyhall-ai/internal/vectorstore"
)

// DefaultScoreThreshold is the minimum similarity a vector match must reach
// to be treated as relevant context.
const DefaultScoreThreshold = 0.7

// Embedder generates an embedding vector for a query.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// vectorEngine implements Engine with embedding similarity search. Vector
// points are keyed by chunk ID; chunk rows are resolved from the chunk store
// so the return contract matches the keyword engine exactly.
type vectorEngine struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunkRepo   storage.ChunkStore
	threshold   float32
}

// NewVectorEngine creates an Engine backed by embedding similarity search.
// threshold <= 0 selects DefaultScoreThreshold.
func NewVectorEngine(
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	chunkRepo storage.ChunkStore,
	threshold float32,
) Engine {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &vectorEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunkRepo:   chunkRepo,
		threshold:   threshold,
	}
}

func (e *vectorEngine) Retrieve(ctx context.Context, userID, query string, topK int) (Retrieval, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query",
			"user_id", userID, "query_prefix", queryPrefix(query), "error", err)
		return Retrieval{}, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return Retrieval{}, fmt.Errorf("no embedding returned for query")
	}

	results, err := e.vectorStore.Search(ctx, e.collection, vectors[0], topK, map[string]any{
		"user_id": userID,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store",
			"user_id", userID, "query_prefix", queryPrefix(query), "error", err)
		return Retrieval{}, fmt.Errorf("failed to search vector store: %w", err)
	}

	scored := make([]scoredChunk, 0, len(results))
	for _, result := range results {
		if result.Score < e.threshold {
			continue
		}
		chunk, err := e.chunkRepo.GetByID(ctx, result.PointID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Stale point whose chunk row is gone; skip rather than abort.
				logger.WarnContext(ctx, "vector point without chunk row", "point_id", result.PointID)
				continue
			}
			logger.ErrorContext(ctx, "failed to resolve chunk",
				"point_id", result.PointID, "user_id", userID, "error", err)
			continue
		}
		scored = append(scored, scoredChunk{chunk: *chunk, score: float64(result.Score)})
	}

	if len(scored) == 0 {
		logger.InfoContext(ctx, "no vector matches above threshold",
			"user_id", userID, "query_prefix", queryPrefix(query), "threshold", e.threshold)
		return Retrieval{}, nil
	}

	// The store returns matches ordered by score, but re-rank locally so ties
	// and skipped rows cannot disturb the ordering contract.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	retrieval := rank(scored, topK)
	logger.InfoContext(ctx, "vector retrieval completed",
		"user_id", userID, "query_prefix", queryPrefix(query), "returned", len(retrieval.Contexts))
	return retrieval, nil
}
