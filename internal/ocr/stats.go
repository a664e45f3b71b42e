package ocr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stats summarizes one page's OCR output for the index status record and for
// deciding whether a page is text-poor enough to deserve a caption later.
type Stats struct {
	TextLen      int     `json:"text_len"`
	BlockCount   int     `json:"block_count"`
	AvgConf      float64 `json:"avg_conf"`
	NeedsCaption bool    `json:"needs_caption"`
}

// AnalyzeStats computes per-page OCR stats. A page with no blocks or with
// less than minText characters of recognized text is flagged for captioning.
func AnalyzeStats(res Result, minText int) Stats {
	stats := Stats{BlockCount: len(res.Blocks)}
	var confSum float64
	for _, b := range res.Blocks {
		stats.TextLen += len(strings.TrimSpace(b.Text))
		confSum += b.Confidence
	}
	if len(res.Blocks) > 0 {
		stats.AvgConf = confSum / float64(len(res.Blocks))
	}
	stats.NeedsCaption = len(res.Blocks) == 0 || stats.TextLen < minText
	return stats
}

// WriteResultJSON persists a normalized OCR result next to the rendered page
// image, creating parent directories as needed.
func WriteResultJSON(path string, res Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create OCR output dir: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal OCR result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write OCR result: %w", err)
	}
	return nil
}

// ReadResultJSON loads a persisted OCR result, tolerating historical files of
// any shape by running them through Normalize.
func ReadResultJSON(path string, pageNum int) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read OCR result: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, fmt.Errorf("failed to parse OCR result: %w", err)
	}
	return Normalize(raw, pageNum), nil
}
