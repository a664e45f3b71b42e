package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/Jitarth1102/rag-study-assistant/internal/handlers"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
	vectorstore_mocks "github.com/Jitarth1102/rag-study-assistant/internal/vectorstore/mocks"
)

type fakeEngine struct{}

func (fakeEngine) Ask(context.Context, rag.AskRequest) rag.AskResponse {
	return rag.AskResponse{Answer: "stub answer", Citations: []rag.Citation{}}
}

func (fakeEngine) Answer(context.Context, rag.AskRequest) (rag.AskResponse, error) {
	return rag.AskResponse{Answer: "stub answer", Citations: []rag.Citation{}}, nil
}

type routerFixture struct {
	handler http.Handler
	vectors *vectorstore_mocks.MockVectorStore
	db      *sql.DB
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	subjects := storage.NewSubjectRepo(db)
	assets := storage.NewAssetRepo(db)
	notesRepo := storage.NewNotesRepo(db)
	vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
	dataRoot := t.TempDir()

	deps := &Deps{
		Subjects:       service.NewSubjectService(subjects, dataRoot),
		Assets:         service.NewAssetService(subjects, assets, notesRepo, vectors, "test_chunks", dataRoot),
		RAGEngine:      fakeEngine{},
		DB:             db,
		VectorStore:    vectors,
		CollectionName: "test_chunks",
	}
	return &routerFixture{handler: NewRouter(deps), vectors: vectors, db: db}
}

func (f *routerFixture) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func multipartFile(t *testing.T, field, filename string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return buf.Bytes(), w.FormDataContentType()
}

func TestRouterSubjectAndAssetLifecycle(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/subjects", "application/json", []byte(`{"name":"Physics"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subject status = %d, body %s", rec.Code, rec.Body)
	}
	var subject handlers.SubjectResponse
	if err := json.NewDecoder(rec.Body).Decode(&subject); err != nil || subject.ID != "physics" {
		t.Fatalf("subject = %+v, err = %v", subject, err)
	}

	rec = f.do(t, http.MethodGet, "/api/subjects/physics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get subject status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/subjects/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing subject status = %d, want 404", rec.Code)
	}

	body, contentType := multipartFile(t, "file", "slides.pdf", []byte("%PDF-1.4 fake"))
	rec = f.do(t, http.MethodPost, "/api/subjects/physics/assets", contentType, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	var uploaded handlers.AssetResponse
	if err := json.NewDecoder(rec.Body).Decode(&uploaded); err != nil || uploaded.ID == "" {
		t.Fatalf("asset = %+v, err = %v", uploaded, err)
	}

	// The identical file again is a dedupe, not a new asset.
	rec = f.do(t, http.MethodPost, "/api/subjects/physics/assets", contentType, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-upload status = %d, want 200", rec.Code)
	}
	var deduped handlers.AssetResponse
	if err := json.NewDecoder(rec.Body).Decode(&deduped); err != nil || !deduped.Deduplicated || deduped.ID != uploaded.ID {
		t.Errorf("deduped = %+v, err = %v", deduped, err)
	}

	rec = f.do(t, http.MethodGet, "/api/subjects/physics/assets", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("list assets status = %d", rec.Code)
	}

	f.vectors.EXPECT().DeleteByAssetID(gomock.Any(), "test_chunks", uploaded.ID).Return(nil)
	rec = f.do(t, http.MethodDelete, "/api/subjects/physics/assets/"+uploaded.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestRouterAsk(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/ask", "application/json", []byte(`{"question":"what is entropy"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stub answer") {
		t.Errorf("ask body = %s", rec.Body)
	}
}

func TestRouterHealth(t *testing.T) {
	f := newRouterFixture(t)

	f.vectors.EXPECT().
		GetCollectionInfo(gomock.Any(), "test_chunks").
		Return(&vectorstore.CollectionInfo{PointsCount: 42, Status: "green"}, nil)

	rec := f.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, body %s", rec.Code, rec.Body)
	}
	var health handlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("bad health body: %v", err)
	}
	if health.Status != "healthy" || health.IndexedPoints != 42 || health.Checks["database"] != "ok" {
		t.Errorf("health = %+v", health)
	}

	// An unreachable vector store degrades health.
	f.vectors.EXPECT().
		GetCollectionInfo(gomock.Any(), "test_chunks").
		Return(nil, errors.New("connection refused"))
	rec = f.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded health status = %d, want 503", rec.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/subjects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS headers on preflight")
	}
}
