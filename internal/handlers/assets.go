package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// maxUploadBytes caps upload size. Lecture decks rarely pass 100MB; anything
// larger is almost certainly a mistake.
const maxUploadBytes = 100 << 20

// AssetsHandler handles HTTP requests for asset uploads and management.
type AssetsHandler struct {
	assets *service.AssetService
}

// NewAssetsHandler creates a new AssetsHandler.
func NewAssetsHandler(assets *service.AssetService) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

// AssetResponse represents an asset in HTTP responses.
type AssetResponse struct {
	ID               string `json:"id"`
	SubjectID        string `json:"subject_id"`
	OriginalFilename string `json:"original_filename"`
	SizeBytes        int64  `json:"size_bytes"`
	MimeType         string `json:"mime_type"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	Deduplicated     bool   `json:"deduplicated,omitempty"`
}

func toAssetResponse(a *storage.Asset, deduplicated bool) AssetResponse {
	return AssetResponse{
		ID:               a.ID,
		SubjectID:        a.SubjectID,
		OriginalFilename: a.OriginalFilename,
		SizeBytes:        a.SizeBytes,
		MimeType:         a.MimeType,
		Status:           a.Status,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		Deduplicated:     deduplicated,
	}
}

// Upload handles POST /api/subjects/{subjectID}/assets. The file comes in as
// multipart form data under the "file" field.
func (h *AssetsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	subjectID := chi.URLParam(r, "subjectID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Expected multipart form with a \"file\" field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file field", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Missing \"file\" field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read uploaded file", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	asset, created, err := h.assets.Add(ctx, subjectID, header.Filename, data)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(ctx, w, status, toAssetResponse(asset, !created))
}

// List handles GET /api/subjects/{subjectID}/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assets, err := h.assets.List(ctx, chi.URLParam(r, "subjectID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		resp = append(resp, toAssetResponse(&assets[i], false))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/subjects/{subjectID}/assets/{assetID}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asset, err := h.assets.Get(ctx, chi.URLParam(r, "subjectID"), chi.URLParam(r, "assetID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toAssetResponse(asset, false))
}

// Delete handles DELETE /api/subjects/{subjectID}/assets/{assetID}.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.assets.Delete(ctx, chi.URLParam(r, "subjectID"), chi.URLParam(r, "assetID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
