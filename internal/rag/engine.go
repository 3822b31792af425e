package rag

import (
	"context"
	"fmt"
	"sort"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/storage"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 3

// Engine retrieves the most relevant stored chunks for a user's query.
type Engine interface {
	// Retrieve scores the user's chunks against the query and returns the
	// topK best as ordered context texts with citations. An unknown user or
	// a query with no overlap yields an empty Retrieval, not an error.
	Retrieve(ctx context.Context, userID, query string, topK int) (Retrieval, error)
}

// keywordEngine implements Engine with the word-overlap scorer over the
// SQLite chunk store.
type keywordEngine struct {
	chunkRepo storage.ChunkStore
}

// NewKeywordEngine creates an Engine backed by keyword-overlap scoring.
func NewKeywordEngine(chunkRepo storage.ChunkStore) Engine {
	return &keywordEngine{chunkRepo: chunkRepo}
}

// scoredChunk pairs a chunk with its relevance score for ranking.
type scoredChunk struct {
	chunk storage.ChunkRecord
	score float64
}

func (e *keywordEngine) Retrieve(ctx context.Context, userID, query string, topK int) (Retrieval, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = DefaultTopK
	}

	chunks, err := e.chunkRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load chunks",
			"user_id", userID, "query_prefix", queryPrefix(query), "error", err)
		return Retrieval{}, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no chunks stored for user", "user_id", userID)
		return Retrieval{}, nil
	}

	scored := make([]scoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		s := Score(query, chunk.Text)
		if s <= 0 {
			continue
		}
		scored = append(scored, scoredChunk{chunk: chunk, score: s})
	}

	if len(scored) == 0 {
		logger.InfoContext(ctx, "no chunks scored above zero",
			"user_id", userID, "query_prefix", queryPrefix(query), "chunk_count", len(chunks))
		return Retrieval{}, nil
	}

	retrieval := rank(scored, topK)
	logger.InfoContext(ctx, "retrieval completed",
		"user_id", userID, "query_prefix", queryPrefix(query),
		"chunk_count", len(chunks), "matched", len(scored), "returned", len(retrieval.Contexts))
	return retrieval, nil
}

// rank sorts scored chunks by descending score (stable, so ties keep their
// original chunk order), truncates to topK, and builds the context texts and
// de-duplicated citations.
func rank(scored []scoredChunk, topK int) Retrieval {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	var retrieval Retrieval
	seen := make(map[string]struct{}, len(scored))
	for _, sc := range scored {
		retrieval.Contexts = append(retrieval.Contexts, sc.chunk.Text)
		citation := Citation(sc.chunk.Filename, sc.chunk.ChunkIndex)
		if _, ok := seen[citation]; ok {
			continue
		}
		seen[citation] = struct{}{}
		retrieval.Citations = append(retrieval.Citations, citation)
	}
	return retrieval
}

// queryPrefix truncates a query for logging.
func queryPrefix(query string) string {
	const max = 48
	if len(query) <= max {
		return query
	}
	return query[:max] + "..."
}
