package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"studyhall-ai/internal/contextutil"
	"studyhall-ai/internal/vectorstore"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 *sql.DB
	vectorStore        *vectorstore.QdrantStore // nil when vector mode is disabled
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. vectorStore may be nil.
func NewHealthHandler(db *sql.DB, vectorStore *vectorstore.QdrantStore, collectionName string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		vectorStore:        vectorStore,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.db.PingContext(checkCtx); err != nil {
		checks["database"] = "unhealthy"
		issues = append(issues, "database: "+err.Error())
		logger.ErrorContext(ctx, "database health check failed", "error", err)
	} else {
		checks["database"] = "healthy"
	}

	if h.vectorStore != nil {
		if _, err := h.vectorStore.CollectionExists(checkCtx, h.collectionName); err != nil {
			checks["vector_store"] = "unhealthy"
			issues = append(issues, "vector_store: "+err.Error())
			logger.ErrorContext(ctx, "vector store health check failed", "error", err)
		} else {
			checks["vector_store"] = "healthy"
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	status := http.StatusOK
	if len(issues) > 0 {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
