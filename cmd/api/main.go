package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/Jitarth1102/rag-study-assistant/internal/config"
	"github.com/Jitarth1102/rag-study-assistant/internal/http"
	"github.com/Jitarth1102/rag-study-assistant/internal/ingest"
	"github.com/Jitarth1102/rag-study-assistant/internal/llm"
	"github.com/Jitarth1102/rag-study-assistant/internal/notes"
	"github.com/Jitarth1102/rag-study-assistant/internal/ocr"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
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
	logger := slog.New(handler)
	slog.SetDefault(logger)
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
	subjectRepo := storage.NewSubjectRepo(db)
	assetRepo := storage.NewAssetRepo(db)
	pageRepo := storage.NewPageRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	notesRepo := storage.NewNotesRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Resolve the OCR engine once. A fallback to the stub is survivable but
	// worth a loud warning: every page will carry placeholder text.
	ocrResolution, err := ocr.Resolve(cfg.OCREngine, cfg.TesseractCmd, cfg.OCRLang)
	if err != nil {
		log.Fatalf("Failed to resolve OCR engine: %v", err)
	}
	if ocrResolution.Warning != "" {
		slog.Warn("OCR engine fallback", "engine", ocrResolution.Name, "warning", ocrResolution.Warning)
	} else {
		slog.Info("OCR engine resolved", "engine", ocrResolution.Name)
	}

	// Create the ingestion pipeline
	renderer := ingest.NewRenderer(cfg.DataRoot, cfg.PDFRenderDPI)
	pipeline := ingest.NewPipeline(
		ingest.PipelineDeps{
			Assets:   assetRepo,
			Pages:    pageRepo,
			Chunks:   chunkRepo,
			Renderer: renderer,
			OCR:      ocrResolution,
			Embedder: embedder,
			Vectors:  vectorStore,
		},
		ingest.PipelineConfig{
			Collection: cfg.QdrantCollection,
			ChunkParams: ingest.ChunkParams{
				MaxChars:      cfg.MaxChunkChars,
				MinChars:      cfg.MinChunkChars,
				OverlapBlocks: cfg.OverlapBlocks,
			},
			CaptionMinText: cfg.CaptionMinText,
		},
	)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create web search client
	searcher := websearch.NewClient(websearch.ClientConfig{
		Provider:       cfg.WebProvider,
		APIKey:         cfg.WebAPIKey,
		MaxResults:     cfg.WebMaxResults,
		TimeoutSeconds: cfg.WebTimeoutSeconds,
		AllowedDomains: cfg.WebAllowedDomains,
		BlockedDomains: cfg.WebBlockedDomains,
	})

	judge := rag.JudgePolicy{
		WebEnabled:     cfg.WebEnabled,
		MinHitsToSkip:  cfg.MinRAGHitsToSkipWeb,
		MinScoreToSkip: float64(cfg.MinRAGScoreToSkipWeb),
	}

	// Create RAG engine
	retriever := rag.NewRetriever(vectorStore, chunkRepo, cfg.QdrantCollection)
	ragEngine := rag.NewEngine(embedder, llmClient, vectorStore, retriever, searcher, rag.Config{
		Collection:        cfg.QdrantCollection,
		VectorSize:        cfg.QdrantVectorSize,
		TopK:              cfg.TopK,
		MinScore:          cfg.MinScore,
		NeighborWindow:    cfg.NeighborWindow,
		MaxNeighborChunks: cfg.MaxNeighborChunks,
		MaxWebQueries:     cfg.MaxWebQueries,
		WebContextBudget:  cfg.WebContextCharBudget,
		Judge:             judge,
	})
	slog.Info("RAG engine initialized")

	// Create notes quality loop and service
	qualityLoop := notes.NewQualityLoop(llmClient, searcher, notes.QualityConfig{
		GapOverlapThreshold: cfg.GapOverlapThreshold,
		AnchorMatchCount:    cfg.AnchorMatchCount,
		MaxSectionQueries:   cfg.MaxSectionQueries,
		MinChars:            cfg.NotesMinChars,
		WebEnabled:          cfg.WebEnabled,
	})
	notesService := notes.NewService(
		notesRepo, chunkRepo, assetRepo,
		embedder, llmClient, searcher, qualityLoop, vectorStore,
		notes.ServiceConfig{
			Collection:    cfg.QdrantCollection,
			TargetChars:   cfg.NotesTargetChars,
			MinChars:      cfg.NotesMinChars,
			ChunkChars:    cfg.NotesChunkChars,
			MaxWebQueries: cfg.MaxWebQueries,
			Judge:         judge,
			ForceWeb:      cfg.ForceWebSearch,
		},
	)
	slog.Info("Notes service initialized")

	// Create service layer
	subjectService := service.NewSubjectService(subjectRepo, cfg.DataRoot)
	assetService := service.NewAssetService(subjectRepo, assetRepo, notesRepo, vectorStore, cfg.QdrantCollection, cfg.DataRoot)

	// Create router with dependencies
	deps := &http.Deps{
		Subjects:       subjectService,
		Assets:         assetService,
		Pipeline:       pipeline,
		RAGEngine:      ragEngine,
		NotesService:   notesService,
		DB:             db,
		VectorStore:    vectorStore,
		CollectionName: cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
