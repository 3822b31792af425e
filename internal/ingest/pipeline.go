package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/storage"
	"studyhall-ai/internal/vectorstore"
)

// Embedder generates embedding vectors for chunk texts.
// It is only used when vector retrieval is enabled.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline turns uploaded documents into stored, index-ordered chunks.
// In vector mode it additionally embeds each chunk and upserts it into the
// vector store under the chunk's ID.
type Pipeline struct {
	docRepo     storage.DocumentStore
	chunkRepo   storage.ChunkStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	maxSize     int
	overlap     int
	logger      *slog.Logger
}

// NewPipeline creates an ingestion pipeline. embedder and vectorStore may be
// nil, in which case chunks are stored for keyword retrieval only.
func NewPipeline(
	docRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	maxSize, overlap int,
) *Pipeline {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Pipeline{
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		maxSize:     maxSize,
		overlap:     overlap,
		logger:      slog.Default(),
	}
}

// Ingest chunks and stores a document for a user. Re-uploading a filename the
// user already has replaces the previous document and its chunks.
func (p *Pipeline) Ingest(ctx context.Context, userID, filename string, content []byte) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	textContent := string(content)
	if IsMarkdown(filename) {
		textContent = ExtractText(content)
	}

	chunkTexts := Chunk(textContent, p.maxSize, p.overlap)
	if len(chunkTexts) == 0 {
		return nil, fmt.Errorf("document %q produced no chunks", filename)
	}

	// Replace a previous upload of the same filename.
	existing, err := p.docRepo.GetByUserAndFilename(ctx, userID, filename)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		if err := p.removeDocument(ctx, existing); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "replaced existing document", "user_id", userID, "filename", filename, "document_id", existing.ID)
	}

	doc := &storage.DocumentRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Filename:   filename,
		ChunkCount: len(chunkTexts),
	}
	if err := p.docRepo.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	chunks := make([]storage.ChunkRecord, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = storage.ChunkRecord{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			UserID:     userID,
			Filename:   filename,
			ChunkIndex: i,
			Text:       text,
		}
		if err := p.chunkRepo.Insert(ctx, &chunks[i]); err != nil {
			return nil, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if p.vectorStore != nil && p.embedder != nil {
		if err := p.indexVectors(ctx, chunks); err != nil {
			// Chunks remain usable for keyword retrieval; report but keep the document.
			logger.ErrorContext(ctx, "failed to index chunk vectors",
				"user_id", userID, "filename", filename, "chunk_count", len(chunks), "error", err)
		}
	}

	logger.InfoContext(ctx, "document ingested",
		"user_id", userID, "filename", filename, "document_id", doc.ID, "chunk_count", len(chunks))
	return doc, nil
}

// DeleteDocument removes a user's document, its chunks, and its vector points.
// Returns storage.ErrNotFound when the document does not exist or belongs to
// another user.
func (p *Pipeline) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := p.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != userID {
		return storage.ErrNotFound
	}
	return p.removeDocument(ctx, doc)
}

// removeDocument deletes vector points first, then chunk rows, then the
// document record.
func (p *Pipeline) removeDocument(ctx context.Context, doc *storage.DocumentRecord) error {
	if p.vectorStore != nil {
		ids, err := p.chunkRepo.ListIDsByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to list chunk IDs: %w", err)
		}
		if err := p.vectorStore.Delete(ctx, p.collection, ids); err != nil {
			return fmt.Errorf("failed to delete vector points: %w", err)
		}
	}
	if err := p.chunkRepo.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}
	if err := p.docRepo.Delete(ctx, doc.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// indexVectors embeds chunk texts and upserts them to the vector store.
func (p *Pipeline) indexVectors(ctx context.Context, chunks []storage.ChunkRecord) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:  c.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				"user_id":     c.UserID,
				"filename":    c.Filename,
				"chunk_index": c.ChunkIndex,
			},
		}
	}

	return p.vectorStore.Upsert(ctx, p.collection, points)
}
