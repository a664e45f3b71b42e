package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/ingest"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// IndexHandler handles HTTP requests for running the ingestion pipeline.
type IndexHandler struct {
	pipeline *ingest.Pipeline
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(pipeline *ingest.Pipeline) *IndexHandler {
	return &IndexHandler{pipeline: pipeline}
}

// IndexSubject handles POST /api/subjects/{subjectID}/index. The batch runs
// synchronously and the per-asset summary comes back in the response body.
// Query parameters: limit (max assets to process, 0 = unlimited) and
// force=true (re-run every stage even on indexed assets).
func (h *IndexHandler) IndexSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	subjectID := chi.URLParam(r, "subjectID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(ctx, w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	force := r.URL.Query().Get("force") == "true"

	logger.InfoContext(ctx, "subject indexing triggered", "subject_id", subjectID, "limit", limit, "force", force)

	summary, err := h.pipeline.ProcessSubjectAssets(ctx, subjectID, limit, force)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Subject not found")
			return
		}
		logger.ErrorContext(ctx, "subject indexing failed", "subject_id", subjectID, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Indexing failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, summary)
}

// IndexAsset handles POST /api/subjects/{subjectID}/assets/{assetID}/index.
func (h *IndexHandler) IndexAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	assetID := chi.URLParam(r, "assetID")
	force := r.URL.Query().Get("force") == "true"

	result, err := h.pipeline.ProcessAsset(ctx, assetID, force)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(ctx, w, http.StatusNotFound, "Asset not found")
		case errors.Is(err, ingest.ErrAssetMissing):
			// The missing stage is already recorded; the asset needs a
			// re-upload before indexing can proceed.
			writeJSON(ctx, w, http.StatusConflict, result)
		default:
			logger.ErrorContext(ctx, "asset indexing failed", "asset_id", assetID, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "Indexing failed")
		}
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
