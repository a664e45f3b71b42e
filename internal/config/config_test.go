package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

// setBaseEnv points all filesystem paths into a temp dir and satisfies the
// one required variable so Load succeeds unless a test breaks it on purpose.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "db", "test.db"))
	t.Setenv("DATA_ROOT", filepath.Join(dir, "data"))
	t.Setenv("QDRANT_VECTOR_SIZE", "768")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.QdrantVectorSize != 768 {
		t.Errorf("QdrantVectorSize = %d, want 768", cfg.QdrantVectorSize)
	}
	if cfg.APIPort != "9000" || cfg.QdrantCollection != "study_chunks" {
		t.Errorf("defaults = port %q, collection %q", cfg.APIPort, cfg.QdrantCollection)
	}
	if cfg.MaxChunkChars != 800 || cfg.MinChunkChars != 200 || cfg.OverlapBlocks != 1 {
		t.Errorf("chunk defaults = %d/%d/%d", cfg.MaxChunkChars, cfg.MinChunkChars, cfg.OverlapBlocks)
	}
	if cfg.TopK != 6 || cfg.NeighborWindow != 1 {
		t.Errorf("retrieval defaults = top_k %d, window %d", cfg.TopK, cfg.NeighborWindow)
	}
	if cfg.WebEnabled || cfg.WebProvider != "serpapi" {
		t.Errorf("web defaults = enabled %v, provider %q", cfg.WebEnabled, cfg.WebProvider)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %v/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.GapOverlapThreshold != 0.18 || cfg.AnchorMatchCount != 2 {
		t.Errorf("notes defaults = %v/%d", cfg.GapOverlapThreshold, cfg.AnchorMatchCount)
	}
}

func TestLoadRequiresVectorSize(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QDRANT_VECTOR_SIZE", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "QDRANT_VECTOR_SIZE") {
		t.Errorf("err = %v, want missing QDRANT_VECTOR_SIZE", err)
	}

	t.Setenv("QDRANT_VECTOR_SIZE", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("non-numeric vector size should fail")
	}

	t.Setenv("QDRANT_VECTOR_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Error("zero vector size should fail")
	}
}

func TestLoadValidatesChunkParams(t *testing.T) {
	setBaseEnv(t)

	t.Setenv("MAX_CHUNK_CHARS", "100")
	t.Setenv("MIN_CHUNK_CHARS", "200")
	if _, err := Load(); err == nil {
		t.Error("MIN_CHUNK_CHARS above MAX_CHUNK_CHARS should fail")
	}

	t.Setenv("MIN_CHUNK_CHARS", "50")
	t.Setenv("OVERLAP_BLOCKS", "-1")
	if _, err := Load(); err == nil {
		t.Error("negative OVERLAP_BLOCKS should fail")
	}
}

func TestLoadOverridesAndLists(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEB_ENABLED", "yes")
	t.Setenv("WEB_PROVIDER", "SCRAPE")
	t.Setenv("WEB_ALLOWED_DOMAINS", "en.wikipedia.org, arxiv.org ,")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if !cfg.WebEnabled || cfg.WebProvider != "scrape" {
		t.Errorf("web = %v/%q", cfg.WebEnabled, cfg.WebProvider)
	}
	if len(cfg.WebAllowedDomains) != 2 || cfg.WebAllowedDomains[1] != "arxiv.org" {
		t.Errorf("WebAllowedDomains = %v", cfg.WebAllowedDomains)
	}
	if cfg.MinScore != 0.5 {
		t.Errorf("MinScore = %v, want 0.5", cfg.MinScore)
	}
}
