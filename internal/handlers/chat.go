package handlers

import (
	"net/http"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/service"
)

// ChatHandler handles HTTP requests for chat turns.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for a chat turn.
type ChatRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
	SubjectID      string `json:"subject_id,omitempty"`
	Message        string `json:"message" validate:"required"`
}

// ChatResponse represents the HTTP response payload for a chat turn.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Reply          string   `json:"reply"`
	Citations      []string `json:"citations"`
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcResp, err := h.chatService.ProcessTurn(ctx, service.TurnRequest{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		SubjectID:      req.SubjectID,
		Message:        req.Message,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat turn")
		return
	}

	citations := svcResp.Citations
	if citations == nil {
		citations = []string{}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: svcResp.ConversationID,
		Reply:          svcResp.Reply,
		Citations:      citations,
	})
}
