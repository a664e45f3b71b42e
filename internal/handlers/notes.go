package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/notes"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// NotesHandler handles HTTP requests for notes generation and editing.
type NotesHandler struct {
	notes *notes.Service
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(svc *notes.Service) *NotesHandler {
	return &NotesHandler{notes: svc}
}

// NotesDocumentResponse represents a notes version in HTTP responses.
type NotesDocumentResponse struct {
	ID          string          `json:"id"`
	SubjectID   string          `json:"subject_id"`
	AssetID     string          `json:"asset_id"`
	Version     int             `json:"version"`
	Markdown    string          `json:"markdown"`
	GeneratedBy string          `json:"generated_by"`
	UpdatedAt   string          `json:"updated_at"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

func toNotesDocumentResponse(rec *storage.NotesRecord) NotesDocumentResponse {
	resp := NotesDocumentResponse{
		ID:          rec.ID,
		SubjectID:   rec.SubjectID,
		AssetID:     rec.AssetID,
		Version:     rec.Version,
		Markdown:    rec.Markdown,
		GeneratedBy: rec.GeneratedBy,
		UpdatedAt:   rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.MetaJSON != "" {
		resp.Meta = json.RawMessage(rec.MetaJSON)
	}
	return resp
}

// UpdateNotesRequest represents the request payload for notes edits.
type UpdateNotesRequest struct {
	Markdown string `json:"markdown"`
}

// Generate handles POST /api/subjects/{subjectID}/assets/{assetID}/notes.
// Generation is synchronous; the critique/revise loop makes this the slowest
// endpoint in the API, so clients should set generous timeouts.
func (h *NotesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	subjectID := chi.URLParam(r, "subjectID")
	assetID := chi.URLParam(r, "assetID")

	logger.InfoContext(ctx, "notes generation triggered", "subject_id", subjectID, "asset_id", assetID)

	result, err := h.notes.Generate(ctx, subjectID, assetID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

// GetLatest handles GET /api/subjects/{subjectID}/assets/{assetID}/notes.
func (h *NotesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.notes.GetLatest(ctx, chi.URLParam(r, "subjectID"), chi.URLParam(r, "assetID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNotesDocumentResponse(rec))
}

// Update handles PUT /api/notes/{notesID}. The edited markdown becomes a new
// version; provenance labels carry forward for unchanged chunks.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		writeError(ctx, w, http.StatusBadRequest, "Markdown is required")
		return
	}

	result, err := h.notes.Update(ctx, chi.URLParam(r, "notesID"), req.Markdown, "user")
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

// SaveUser handles POST /api/subjects/{subjectID}/assets/{assetID}/notes/user.
// Creates version 1 when no notes exist yet, otherwise behaves like Update.
func (h *NotesHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		writeError(ctx, w, http.StatusBadRequest, "Markdown is required")
		return
	}

	result, err := h.notes.SaveUserNotes(ctx, chi.URLParam(r, "subjectID"), chi.URLParam(r, "assetID"), req.Markdown)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

// Reindex handles POST /api/notes/{notesID}/reindex. Rebuilds the derived
// chunks and vector points from the stored markdown without changing it.
func (h *NotesHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.notes.Reindex(ctx, chi.URLParam(r, "notesID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
