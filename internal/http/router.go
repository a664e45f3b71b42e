package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jitarth1102/rag-study-assistant/internal/handlers"
	"github.com/Jitarth1102/rag-study-assistant/internal/ingest"
	"github.com/Jitarth1102/rag-study-assistant/internal/notes"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Subjects       *service.SubjectService
	Assets         *service.AssetService
	Pipeline       *ingest.Pipeline
	RAGEngine      rag.Engine
	NotesService   *notes.Service
	DB             *sql.DB
	VectorStore    vectorstore.VectorStore
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	subjectsHandler := handlers.NewSubjectsHandler(deps.Subjects)
	assetsHandler := handlers.NewAssetsHandler(deps.Assets)
	indexHandler := handlers.NewIndexHandler(deps.Pipeline)
	askHandler := handlers.NewAskHandler(deps.RAGEngine)
	notesHandler := handlers.NewNotesHandler(deps.NotesService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Method(http.MethodPost, "/ask", askHandler)

		r.Route("/subjects", func(r chi.Router) {
			r.Post("/", subjectsHandler.Create)
			r.Get("/", subjectsHandler.List)

			r.Route("/{subjectID}", func(r chi.Router) {
				r.Get("/", subjectsHandler.Get)
				r.Post("/index", indexHandler.IndexSubject)

				r.Route("/assets", func(r chi.Router) {
					r.Post("/", assetsHandler.Upload)
					r.Get("/", assetsHandler.List)

					r.Route("/{assetID}", func(r chi.Router) {
						r.Get("/", assetsHandler.Get)
						r.Delete("/", assetsHandler.Delete)
						r.Post("/index", indexHandler.IndexAsset)
						r.Post("/notes", notesHandler.Generate)
						r.Get("/notes", notesHandler.GetLatest)
						r.Post("/notes/user", notesHandler.SaveUser)
					})
				})
			})
		})

		r.Route("/notes/{notesID}", func(r chi.Router) {
			r.Put("/", notesHandler.Update)
			r.Post("/reindex", notesHandler.Reindex)
		})
	})

	return r
}
