package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studyhall-ai/internal/handlers"
	"studyhall-ai/internal/ingest"
	"studyhall-ai/internal/service"
	"studyhall-ai/internal/storage"
	"studyhall-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService    service.ChatService
	Pipeline       *ingest.Pipeline
	DocumentRepo   storage.DocumentStore
	ConvRepo       storage.ConversationStore
	DB             *sql.DB
	VectorStore    *vectorstore.QdrantStore // nil when vector mode is disabled
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	documentsHandler := handlers.NewDocumentsHandler(deps.Pipeline, deps.DocumentRepo)
	conversationsHandler := handlers.NewConversationsHandler(deps.ConvRepo)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentsHandler.Upload)
			r.Get("/", documentsHandler.List)
			r.Delete("/{documentID}", documentsHandler.Delete)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationsHandler.List)
			r.Get("/{conversationID}/messages", conversationsHandler.Messages)
		})
	})

	return r
}
