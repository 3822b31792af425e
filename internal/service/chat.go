package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks studyhall-ai/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService studyhall-ai/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/rag"
	"studyhall-ai/internal/storage"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Chat sends a prompt to the LLM and returns the reply.
	Chat(ctx context.Context, message string) (string, error)
}

// fallbackWithContext opens the reply used when generation fails but
// retrieval found relevant material; the top passage is echoed after it.
const fallbackWithContext = "I couldn't generate an answer just now. " +
	"Here is the most relevant passage from your documents:\n\n"

// fallbackNoContext is the reply used when generation fails and there is no
// retrieved context to echo.
const fallbackNoContext = "I couldn't generate an answer just now. " +
	"Please try again in a moment."

// TurnRequest represents one chat turn in the domain layer.
type TurnRequest struct {
	UserID         string `validate:"required"`
	ConversationID string
	SubjectID      string
	Message        string `validate:"required"`
}

// TurnResponse represents the outcome of one chat turn.
type TurnResponse struct {
	ConversationID string
	Reply          string
	Citations      []string
}

// ChatService handles one retrieval-augmented chat turn per call.
type ChatService interface {
	// ProcessTurn retrieves context for the message, generates a grounded
	// reply, stores the exchange, and returns the reply with citations.
	ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
}

// chatService implements ChatService.
type chatService struct {
	engine   rag.Engine
	llm      LLMClient
	convRepo storage.ConversationStore
	topK     int
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, llm LLMClient, convRepo storage.ConversationStore, topK int) ChatService {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &chatService{
		engine:   engine,
		llm:      llm,
		convRepo: convRepo,
		topK:     topK,
	}
}

// ProcessTurn handles one chat turn. Retrieval and generation failures
// degrade per the error taxonomy: a store failure falls back to the
// no-documents prompt and a generation failure falls back to a templated
// reply, and the exchange is stored in both cases.
func (s *chatService) ProcessTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.UserID == "" {
		return TurnResponse{}, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if req.Message == "" {
		return TurnResponse{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}

	conversationID, err := s.resolveConversation(ctx, req)
	if err != nil {
		return TurnResponse{}, err
	}

	retrieval, err := s.engine.Retrieve(ctx, req.UserID, req.Message, s.topK)
	if err != nil {
		// Degrade to the no-documents prompt rather than failing the turn.
		logger.ErrorContext(ctx, "retrieval failed, continuing without context",
			"user_id", req.UserID, "conversation_id", conversationID, "error", err)
		retrieval = rag.Retrieval{}
	}

	prompt := rag.BuildPrompt(req.Message, retrieval.Contexts)

	reply, err := s.llm.Chat(ctx, prompt)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed, using fallback reply",
			"user_id", req.UserID, "conversation_id", conversationID,
			"context_count", len(retrieval.Contexts), "error", err)
		reply = fallbackReply(retrieval)
	}

	// Bookkeeping happens even for fallback replies.
	if err := s.convRepo.AppendExchange(ctx, conversationID, req.Message, reply, retrieval.Citations); err != nil {
		logger.ErrorContext(ctx, "failed to store exchange",
			"user_id", req.UserID, "conversation_id", conversationID, "error", err)
	}

	logger.InfoContext(ctx, "chat turn processed",
		"user_id", req.UserID, "conversation_id", conversationID,
		"context_count", len(retrieval.Contexts), "reply_length", len(reply))

	return TurnResponse{
		ConversationID: conversationID,
		Reply:          reply,
		Citations:      retrieval.Citations,
	}, nil
}

// resolveConversation returns the existing conversation's ID after an
// ownership check, or creates a new conversation when none was supplied.
func (s *chatService) resolveConversation(ctx context.Context, req TurnRequest) (string, error) {
	if req.ConversationID != "" {
		conv, err := s.convRepo.Get(ctx, req.ConversationID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", fmt.Errorf("conversation %s: %w", req.ConversationID, ErrNotFound)
			}
			return "", WrapError(err, "failed to load conversation")
		}
		if conv.UserID != req.UserID {
			return "", fmt.Errorf("conversation %s: %w", req.ConversationID, ErrNotFound)
		}
		return conv.ID, nil
	}

	conv := &storage.ConversationRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		SubjectID: req.SubjectID,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return "", WrapError(err, "failed to create conversation")
	}
	return conv.ID, nil
}

// fallbackReply builds the templated reply used when generation fails.
// When retrieval found context, the top passage is echoed so the user still
// gets something grounded.
func fallbackReply(retrieval rag.Retrieval) string {
	if retrieval.Empty() {
		return fallbackNoContext
	}
	return fallbackWithContext + retrieval.Contexts[0]
}
