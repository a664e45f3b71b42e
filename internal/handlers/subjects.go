package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// SubjectsHandler handles HTTP requests for subject management.
type SubjectsHandler struct {
	subjects *service.SubjectService
}

// NewSubjectsHandler creates a new SubjectsHandler.
func NewSubjectsHandler(subjects *service.SubjectService) *SubjectsHandler {
	return &SubjectsHandler{subjects: subjects}
}

// CreateSubjectRequest represents the request payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name"`
}

// SubjectResponse represents a subject in HTTP responses.
type SubjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toSubjectResponse(s *storage.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /api/subjects.
func (h *SubjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	subject, err := h.subjects.Create(ctx, req.Name)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toSubjectResponse(subject))
}

// List handles GET /api/subjects.
func (h *SubjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjects, err := h.subjects.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := make([]SubjectResponse, 0, len(subjects))
	for i := range subjects {
		resp = append(resp, toSubjectResponse(&subjects[i]))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/subjects/{subjectID}.
func (h *SubjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.subjects.Get(ctx, chi.URLParam(r, "subjectID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSubjectResponse(subject))
}
