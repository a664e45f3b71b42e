package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It is an immutable value: load it once and thread it through constructors.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string

	DBPath   string
	DataRoot string

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// Ingestion
	PDFRenderDPI   int
	OCREngine      string // "auto", "tesseract", or "stub"
	OCRLang        string
	TesseractCmd   string
	MaxChunkChars  int
	MinChunkChars  int
	OverlapBlocks  int
	CaptionMinText int // text_len below this flags needs_caption

	// Retrieval
	TopK              int
	MinScore          float32
	NeighborWindow    int
	MaxNeighborChunks int

	// Web search
	WebEnabled            bool
	WebProvider           string
	WebAPIKey             string
	WebMaxResults         int
	WebTimeoutSeconds     int
	WebContextCharBudget  int
	MaxWebQueries         int
	MinRAGHitsToSkipWeb   int
	MinRAGScoreToSkipWeb  float32
	ForceWebSearch        bool
	WebAllowedDomains     []string
	WebBlockedDomains     []string

	// Notes
	NotesTargetChars    int
	NotesMinChars       int
	NotesChunkChars     int
	GapOverlapThreshold float64
	AnchorMatchCount    int
	MaxSectionQueries   int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it is loaded
// automatically; environment variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find a .env next to go.mod
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),

		DBPath:   getEnv("DB_PATH", "./data/study-assistant.db"),
		DataRoot: getEnv("DATA_ROOT", "./data"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "study_chunks"),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		PDFRenderDPI:   getEnvInt("PDF_RENDER_DPI", 200),
		OCREngine:      strings.ToLower(getEnv("OCR_ENGINE", "auto")),
		OCRLang:        getEnv("OCR_LANG", "eng"),
		TesseractCmd:   getEnv("TESSERACT_CMD", ""),
		MaxChunkChars:  getEnvInt("MAX_CHUNK_CHARS", 800),
		MinChunkChars:  getEnvInt("MIN_CHUNK_CHARS", 200),
		OverlapBlocks:  getEnvInt("OVERLAP_BLOCKS", 1),
		CaptionMinText: getEnvInt("CAPTION_MIN_TEXT", 20),

		TopK:              getEnvInt("RETRIEVAL_TOP_K", 6),
		MinScore:          getEnvFloat32("RETRIEVAL_MIN_SCORE", 0.25),
		NeighborWindow:    getEnvInt("NEIGHBOR_WINDOW", 1),
		MaxNeighborChunks: getEnvInt("MAX_NEIGHBOR_CHUNKS", 12),

		WebEnabled:           getEnvBool("WEB_ENABLED", false),
		WebProvider:          strings.ToLower(getEnv("WEB_PROVIDER", "serpapi")),
		WebAPIKey:            getEnv("WEB_API_KEY", ""),
		WebMaxResults:        getEnvInt("WEB_MAX_RESULTS", 5),
		WebTimeoutSeconds:    getEnvInt("WEB_TIMEOUT_SECONDS", 10),
		WebContextCharBudget: getEnvInt("WEB_CONTEXT_CHAR_BUDGET", 1200),
		MaxWebQueries:        getEnvInt("MAX_WEB_QUERIES", 2),
		MinRAGHitsToSkipWeb:  getEnvInt("MIN_RAG_HITS_TO_SKIP_WEB", 3),
		MinRAGScoreToSkipWeb: getEnvFloat32("MIN_RAG_SCORE_TO_SKIP_WEB", 0.65),
		ForceWebSearch:       getEnvBool("FORCE_WEB_SEARCH", false),
		WebAllowedDomains:    splitList(getEnv("WEB_ALLOWED_DOMAINS", "")),
		WebBlockedDomains:    splitList(getEnv("WEB_BLOCKED_DOMAINS", "")),

		NotesTargetChars:    getEnvInt("NOTES_TARGET_CHARS", 8000),
		NotesMinChars:       getEnvInt("NOTES_MIN_CHARS", 0),
		NotesChunkChars:     getEnvInt("NOTES_CHUNK_CHARS", 1200),
		GapOverlapThreshold: getEnvFloat64("GAP_OVERLAP_THRESHOLD", 0.18),
		AnchorMatchCount:    getEnvInt("ANCHOR_MATCH_COUNT", 2),
		MaxSectionQueries:   getEnvInt("MAX_SECTION_QUERIES", 4),
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// QDRANT_VECTOR_SIZE must match the output size of the embeddings model.
	// If the vector size changes, the Qdrant collection must be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	if cfg.MaxChunkChars <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_CHARS must be greater than 0")
	}
	if cfg.MinChunkChars < 0 || cfg.MinChunkChars > cfg.MaxChunkChars {
		return nil, fmt.Errorf("MIN_CHUNK_CHARS must be between 0 and MAX_CHUNK_CHARS")
	}
	if cfg.OverlapBlocks < 0 {
		return nil, fmt.Errorf("OVERLAP_BLOCKS must not be negative")
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.DataRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
