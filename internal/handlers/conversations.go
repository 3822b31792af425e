package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/storage"
)

// defaultHistoryLimit caps message history responses when the caller does not
// pass an explicit limit.
const defaultHistoryLimit = 50

// ConversationsHandler serves conversation listings and message history.
type ConversationsHandler struct {
	convRepo storage.ConversationStore
}

// NewConversationsHandler creates a new ConversationsHandler.
func NewConversationsHandler(convRepo storage.ConversationStore) *ConversationsHandler {
	return &ConversationsHandler{convRepo: convRepo}
}

// ConversationResponse represents a conversation in HTTP responses.
type ConversationResponse struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse represents one message in HTTP responses.
type MessageResponse struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Citations []string `json:"citations,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// List handles GET /api/conversations?user_id=...
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		logger.WarnContext(ctx, "missing user_id query parameter")
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	convs, err := h.convRepo.ListByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list conversations")
		return
	}

	resp := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, ConversationResponse{
			ID:        conv.ID,
			SubjectID: conv.SubjectID,
			CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET /api/conversations/{conversationID}/messages?limit=N.
// Messages are returned in chronological order, capped at limit.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	conversationID := chi.URLParam(r, "conversationID")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			logger.WarnContext(ctx, "invalid limit query parameter", "limit", raw)
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	// Verify the conversation exists before returning an empty history.
	if _, err := h.convRepo.Get(ctx, conversationID); err != nil {
		handleServiceError(w, ctx, err, "Failed to load conversation")
		return
	}

	messages, err := h.convRepo.History(ctx, conversationID, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load messages")
		return
	}

	resp := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, MessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			Citations: m.Citations,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
