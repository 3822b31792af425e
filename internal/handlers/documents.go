package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/ingest"
	"studyhall-ai/internal/storage"
)

// DocumentsHandler handles document upload, listing, and deletion.
type DocumentsHandler struct {
	pipeline *ingest.Pipeline
	docRepo  storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(pipeline *ingest.Pipeline, docRepo storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{
		pipeline: pipeline,
		docRepo:  docRepo,
	}
}

// UploadRequest represents the HTTP request payload for a document upload.
type UploadRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// DocumentResponse represents a document in HTTP responses.
type DocumentResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
}

// Upload handles POST /api/documents.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UploadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.pipeline.Ingest(ctx, req.UserID, req.Filename, []byte(req.Content))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest document")
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

// List handles GET /api/documents?user_id=...
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		logger.WarnContext(ctx, "missing user_id query parameter")
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	docs, err := h.docRepo.ListByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, toDocumentResponse(&docs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/documents/{documentID}?user_id=...
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		logger.WarnContext(ctx, "missing user_id query parameter")
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	documentID := chi.URLParam(r, "documentID")
	if err := h.pipeline.DeleteDocument(ctx, userID, documentID); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}
