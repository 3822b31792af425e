package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document metadata operations.
type DocumentStore interface {
	// Insert inserts a document record. The record.ID must be set (UUID).
	Insert(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// GetByUserAndFilename gets a user's document by filename.
	// Returns nil and ErrNotFound if not found.
	GetByUserAndFilename(ctx context.Context, userID, filename string) (*DocumentRecord, error)
	// ListByUser returns all documents owned by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]DocumentRecord, error)
	// Delete deletes a document record. Chunk rows cascade.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Insert inserts a document record.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (id, user_id, filename, chunk_count) VALUES (?, ?, ?, ?)",
		doc.ID, doc.UserID, doc.Filename, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, filename, chunk_count, created_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.ChunkCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// GetByUserAndFilename gets a user's document by filename.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByUserAndFilename(ctx context.Context, userID, filename string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, filename, chunk_count, created_at FROM documents WHERE user_id = ? AND filename = ?",
		userID, filename,
	).Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.ChunkCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// ListByUser returns all documents owned by a user, newest first.
// Returns an empty slice if the user has no documents (not an error).
func (r *DocumentRepo) ListByUser(ctx context.Context, userID string) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, filename, chunk_count, created_at FROM documents WHERE user_id = ? ORDER BY created_at DESC, filename",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete deletes a document record. Chunk rows cascade via the foreign key.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
