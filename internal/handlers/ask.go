package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
)

// AskHandler handles HTTP requests for retrieval-augmented questions.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{ragEngine: ragEngine}
}

// AskRequest represents the HTTP request payload for questions. This mirrors
// rag.AskRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	SubjectID string `json:"subject_id,omitempty"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
	ForceWeb  bool   `json:"force_web,omitempty"`
}

// ServeHTTP handles POST /api/ask. Internal failures come back as a textual
// answer rather than an error status, so the interactive surface always gets
// something to render. Pass ?debug=true for the retrieval debug object.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(ctx, w, http.StatusBadRequest, "Question is required")
		return
	}

	// Bound user-provided K. Zero means "use the configured default".
	if req.TopK < 0 {
		req.TopK = 0
	}
	if req.TopK > 20 {
		req.TopK = 20
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	resp := h.ragEngine.Ask(ctx, rag.AskRequest{
		SubjectID: req.SubjectID,
		Question:  req.Question,
		TopK:      req.TopK,
		ForceWeb:  req.ForceWeb,
	})
	if !debug {
		resp.Debug = nil
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
