package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 *sql.DB
	vectorStore        vectorstore.VectorStore
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB, vectorStore vectorstore.VectorStore, collectionName string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		vectorStore:        vectorStore,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	Timestamp string `json:"timestamp"`

	// Individual check results keyed by dependency name
	Checks map[string]string `json:"checks"`

	// Point count of the vector collection, when reachable
	IndexedPoints int `json:"indexed_points,omitempty"`

	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. Returns 200 when all dependencies
// respond, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.healthCheckTimeout)
	defer cancel()
	logger := contextutil.LoggerFromContext(ctx)

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}

	if err := h.db.PingContext(ctx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		resp.Checks["database"] = "unreachable"
		resp.Issues = append(resp.Issues, fmt.Sprintf("database: %v", err))
	} else {
		resp.Checks["database"] = "ok"
	}

	info, err := h.vectorStore.GetCollectionInfo(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		resp.Checks["vector_store"] = "unreachable"
		resp.Issues = append(resp.Issues, fmt.Sprintf("vector_store: %v", err))
	} else {
		resp.Checks["vector_store"] = "ok"
		resp.IndexedPoints = info.PointsCount
	}

	status := http.StatusOK
	if len(resp.Issues) > 0 {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(ctx, w, status, resp)
}
