package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhall-ai/internal/config"
	"studyhall-ai/internal/http"
	"studyhall-ai/internal/ingest"
	"studyhall-ai/internal/llm"
	"studyhall-ai/internal/rag"
	"studyhall-ai/internal/service"
	"studyhall-ai/internal/storage"
	"studyhall-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	convRepo := storage.NewConversationRepo(db)

	// Create LLM client (external text-generation collaborator)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Retrieval engine: keyword-overlap by default, embedding similarity in
	// vector mode.
	var (
		engine      rag.Engine
		embedder    *llm.EmbeddingsClient
		vectorStore *vectorstore.QdrantStore
	)
	switch cfg.RetrievalMode {
	case config.ModeVector:
		ctx := context.Background()

		vectorStore, err = vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

		// Validate embedding client vector size (fail-fast)
		embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
		testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
		if err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
			log.Fatalf("Embedding vector size mismatch: expected %d", cfg.QdrantVectorSize)
		}
		slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

		engine = rag.NewVectorEngine(embedder, vectorStore, cfg.QdrantCollection, chunkRepo, float32(cfg.ScoreThreshold))
	default:
		engine = rag.NewKeywordEngine(chunkRepo)
	}
	slog.Info("Retrieval engine initialized", "mode", cfg.RetrievalMode, "top_k", cfg.TopK)

	// Create ingestion pipeline. In keyword mode embedder and vectorStore are
	// nil and chunks are stored for keyword retrieval only.
	var pipelineEmbedder ingest.Embedder
	var pipelineStore vectorstore.VectorStore
	if embedder != nil {
		pipelineEmbedder = embedder
	}
	if vectorStore != nil {
		pipelineStore = vectorStore
	}
	pipeline := ingest.NewPipeline(
		docRepo,
		chunkRepo,
		pipelineEmbedder,
		pipelineStore,
		cfg.QdrantCollection,
		cfg.ChunkMaxSize,
		cfg.ChunkOverlap,
	)

	// Create chat service
	chatService := service.NewChatService(engine, llmClient, convRepo, cfg.TopK)
	slog.Info("Chat service initialized")

	// Create router with dependencies
	deps := &http.Deps{
		ChatService:    chatService,
		Pipeline:       pipeline,
		DocumentRepo:   docRepo,
		ConvRepo:       convRepo,
		DB:             db,
		VectorStore:    vectorStore,
		CollectionName: cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Start API server with graceful shutdown
	srv := &nethttp.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	slog.Info("Server stopped")
}
