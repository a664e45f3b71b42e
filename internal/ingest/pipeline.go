package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/llm"
	"github.com/Jitarth1102/rag-study-assistant/internal/ocr"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
)

// ErrAssetMissing reports that an asset's stored file is absent from disk.
// The pipeline records the missing stage and short-circuits; the state is
// sticky until the asset is deleted or re-uploaded.
var ErrAssetMissing = errors.New("asset file missing from disk")

// PreviewChars caps the preview field stored in vector payloads.
const PreviewChars = 200

// Pipeline drives one asset through render, OCR, chunk, embed, and index.
// It is a strictly sequential state machine; the asset_index_status row is
// the resumability checkpoint between runs.
type Pipeline struct {
	assets   storage.AssetStore
	pages    storage.PageStore
	chunks   storage.ChunkStore
	renderer *Renderer
	engine   ocr.Engine
	ocrName  string
	ocrWarn  string
	embedder llm.Embedder
	vectors  vectorstore.VectorStore

	collection     string
	chunkParams    ChunkParams
	captionMinText int
}

// PipelineDeps bundles the pipeline's collaborators.
type PipelineDeps struct {
	Assets   storage.AssetStore
	Pages    storage.PageStore
	Chunks   storage.ChunkStore
	Renderer *Renderer
	OCR      ocr.Resolution
	Embedder llm.Embedder
	Vectors  vectorstore.VectorStore
}

// PipelineConfig carries the tunable processing parameters.
type PipelineConfig struct {
	Collection     string
	ChunkParams    ChunkParams
	CaptionMinText int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		assets:         deps.Assets,
		pages:          deps.Pages,
		chunks:         deps.Chunks,
		renderer:       deps.Renderer,
		engine:         deps.OCR.Engine,
		ocrName:        deps.OCR.Name,
		ocrWarn:        deps.OCR.Warning,
		embedder:       deps.Embedder,
		vectors:        deps.Vectors,
		collection:     cfg.Collection,
		chunkParams:    cfg.ChunkParams,
		captionMinText: cfg.CaptionMinText,
	}
}

// ProcessResult reports what a single pipeline run did.
type ProcessResult struct {
	AssetID    string `json:"asset_id"`
	FinalStage string `json:"final_stage"`
	Ran        bool   `json:"ran"`
	ChunkCount int    `json:"chunk_count"`
}

// shouldRun decides whether a target stage executes given the current stage.
// A failed asset always retries from the top; otherwise a stage runs only if
// the checkpoint has not reached it yet.
func shouldRun(current, target string, force bool) bool {
	if force || current == "" || current == storage.StageFailed {
		return true
	}
	return storage.StageIndexOf(current) < storage.StageIndexOf(target)
}

// ProcessAsset runs the staged pipeline for one asset. Calling it twice on an
// unchanged, fully indexed asset is a no-op unless force is set. Any stage
// failure records stage=failed with the error and returns it to the caller.
func (p *Pipeline) ProcessAsset(ctx context.Context, assetID string, force bool) (ProcessResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	result := ProcessResult{AssetID: assetID}

	asset, err := p.assets.Get(ctx, assetID)
	if err != nil {
		return result, fmt.Errorf("failed to load asset: %w", err)
	}

	current := ""
	status, err := p.assets.GetIndexStatus(ctx, assetID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return result, fmt.Errorf("failed to load index status: %w", err)
	}
	if status != nil {
		current = status.Stage
	}

	if current == storage.StageIndexed && !force {
		logger.InfoContext(ctx, "asset already indexed, skipping", "asset_id", assetID)
		result.FinalStage = storage.StageIndexed
		return result, nil
	}

	if _, err := os.Stat(asset.StoredPath); err != nil {
		p.setStage(ctx, assetID, storage.StageMissing, fmt.Sprintf("file not found: %s", asset.StoredPath))
		result.FinalStage = storage.StageMissing
		return result, fmt.Errorf("%w: %s", ErrAssetMissing, asset.StoredPath)
	}
	if current == storage.StageMissing {
		// The file came back; restart from the top.
		current = ""
	}

	result.Ran = true

	pages, err := p.runRender(ctx, asset, current, force)
	if err != nil {
		p.fail(ctx, assetID, "render", err)
		result.FinalStage = storage.StageFailed
		return result, err
	}

	if err := p.runOCR(ctx, asset, pages, current, force); err != nil {
		p.fail(ctx, assetID, "ocr", err)
		result.FinalStage = storage.StageFailed
		return result, err
	}

	chunks, err := p.runChunk(ctx, asset, pages, current, force)
	if err != nil {
		p.fail(ctx, assetID, "chunk", err)
		result.FinalStage = storage.StageFailed
		return result, err
	}
	result.ChunkCount = len(chunks)

	if err := p.runEmbedIndex(ctx, asset, chunks); err != nil {
		p.fail(ctx, assetID, "embed", err)
		result.FinalStage = storage.StageFailed
		return result, err
	}

	result.FinalStage = storage.StageIndexed
	logger.InfoContext(ctx, "asset indexed", "asset_id", assetID, "chunks", len(chunks))
	return result, nil
}

func (p *Pipeline) runRender(ctx context.Context, asset *storage.Asset, current string, force bool) ([]storage.PageRecord, error) {
	if !shouldRun(current, storage.StageRendered, force) {
		pages, err := p.pages.ListByAsset(ctx, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rendered pages: %w", err)
		}
		if len(pages) > 0 {
			return pages, nil
		}
		// Checkpoint says rendered but no rows survived; re-render.
	}

	pages, err := p.renderer.RenderAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if err := p.pages.UpsertPage(ctx, &pages[i]); err != nil {
			return nil, err
		}
	}
	p.setStage(ctx, asset.ID, storage.StageRendered, "")
	return pages, nil
}

func (p *Pipeline) runOCR(ctx context.Context, asset *storage.Asset, pages []storage.PageRecord, current string, force bool) error {
	if !shouldRun(current, storage.StageOCRDone, force) {
		return nil
	}

	ocrDir := p.renderer.OCRDir(asset.ID)
	for _, page := range pages {
		res, err := p.engine.OCRPage(ctx, page.ImagePath, page.PageNum)
		if err != nil {
			return fmt.Errorf("OCR failed on page %d: %w", page.PageNum, err)
		}
		normalized := ocr.Normalize(res, page.PageNum)
		normalized.Width = page.Width
		normalized.Height = page.Height

		jsonPath := filepath.Join(ocrDir, fmt.Sprintf("page_%04d.json", page.PageNum))
		if err := ocr.WriteResultJSON(jsonPath, normalized); err != nil {
			return err
		}

		stats := ocr.AnalyzeStats(normalized, p.captionMinText)
		rec := storage.OCRPageRecord{
			AssetID:      asset.ID,
			PageNum:      page.PageNum,
			OCRJSONPath:  jsonPath,
			TextLen:      stats.TextLen,
			AvgConf:      stats.AvgConf,
			NeedsCaption: stats.NeedsCaption,
		}
		if err := p.pages.UpsertOCRPage(ctx, &rec); err != nil {
			return err
		}
	}

	status := &storage.IndexStatus{
		AssetID:   asset.ID,
		Stage:     storage.StageOCRDone,
		OCREngine: p.ocrName,
		Warning:   p.ocrWarn,
	}
	if err := p.assets.UpsertIndexStatus(ctx, status); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to record stage", "asset_id", asset.ID, "stage", storage.StageOCRDone, "error", err)
	}
	return nil
}

func (p *Pipeline) runChunk(ctx context.Context, asset *storage.Asset, pages []storage.PageRecord, current string, force bool) ([]storage.ChunkRecord, error) {
	if !shouldRun(current, storage.StageChunked, force) {
		chunks, err := p.chunks.ListByAsset(ctx, asset.SubjectID, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunks: %w", err)
		}
		if len(chunks) > 0 {
			return chunks, nil
		}
		// Chunk rows are gone; try the backup file before re-chunking.
		if chunks := p.restoreChunkBackup(ctx, asset); len(chunks) > 0 {
			return chunks, nil
		}
	}

	ocrRecords, err := p.pages.ListOCRByAsset(ctx, asset.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load OCR records: %w", err)
	}

	var all []storage.ChunkRecord
	for _, rec := range ocrRecords {
		res, err := ocr.ReadResultJSON(rec.OCRJSONPath, rec.PageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to read OCR result for page %d: %w", rec.PageNum, err)
		}
		all = append(all, ChunkPage(asset.SubjectID, asset.ID, rec.PageNum, res, p.chunkParams)...)
	}

	for i := range all {
		if err := p.chunks.Upsert(ctx, &all[i]); err != nil {
			return nil, err
		}
	}
	if err := p.writeChunkBackup(asset.ID, all); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to write chunk backup", "asset_id", asset.ID, "error", err)
	}

	p.setStage(ctx, asset.ID, storage.StageChunked, "")
	return all, nil
}

func (p *Pipeline) runEmbedIndex(ctx context.Context, asset *storage.Asset, chunks []storage.ChunkRecord) error {
	if len(chunks) == 0 {
		// Nothing to index; the asset is still considered fully processed.
		p.setStage(ctx, asset.ID, storage.StageIndexed, "")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	p.setStage(ctx, asset.ID, storage.StageEmbedded, "")

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:  vectorstore.PointIDForChunk(c.SubjectID, c.AssetID, c.PageNum, c.ID),
			Vec: vectors[i],
			Meta: map[string]any{
				"chunk_id":    c.ID,
				"subject_id":  c.SubjectID,
				"asset_id":    c.AssetID,
				"page_num":    c.PageNum,
				"text":        c.Text,
				"preview":     preview(c.Text),
				"source_type": "slide",
			},
		}
	}

	if err := p.vectors.Upsert(ctx, p.collection, points); err != nil {
		return err
	}
	p.setStage(ctx, asset.ID, storage.StageIndexed, "")
	return nil
}

// setStage records a checkpoint. Checkpoint write failures are logged rather
// than propagated; losing a checkpoint only costs redone work on resume.
func (p *Pipeline) setStage(ctx context.Context, assetID, stage, errMsg string) {
	status := &storage.IndexStatus{AssetID: assetID, Stage: stage, Error: errMsg, OCREngine: p.ocrName, Warning: p.ocrWarn}
	if err := p.assets.UpsertIndexStatus(ctx, status); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to record stage", "asset_id", assetID, "stage", stage, "error", err)
	}
}

func (p *Pipeline) fail(ctx context.Context, assetID, stage string, cause error) {
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "pipeline stage failed", "asset_id", assetID, "stage", stage, "error", cause)
	p.setStage(ctx, assetID, storage.StageFailed, fmt.Sprintf("%s: %v", stage, cause))
}

// chunkBackupLine is the JSONL schema of the flat chunk backup file.
type chunkBackupLine struct {
	ChunkID    string `json:"chunk_id"`
	SubjectID  string `json:"subject_id"`
	AssetID    string `json:"asset_id"`
	PageNum    int    `json:"page_num"`
	Text       string `json:"text"`
	BBox       string `json:"bbox"`
	StartBlock int    `json:"start_block"`
	EndBlock   int    `json:"end_block"`
}

func (p *Pipeline) writeChunkBackup(assetID string, chunks []storage.ChunkRecord) error {
	path := p.renderer.ChunkBackupPath(assetID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range chunks {
		line := chunkBackupLine{
			ChunkID: c.ID, SubjectID: c.SubjectID, AssetID: c.AssetID, PageNum: c.PageNum,
			Text: c.Text, BBox: c.BBoxJSON, StartBlock: c.StartBlock, EndBlock: c.EndBlock,
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return w.Flush()
}

// restoreChunkBackup re-reads the JSONL backup and re-upserts its rows.
// Malformed lines are skipped so a torn write cannot poison a resume.
func (p *Pipeline) restoreChunkBackup(ctx context.Context, asset *storage.Asset) []storage.ChunkRecord {
	logger := contextutil.LoggerFromContext(ctx)

	f, err := os.Open(p.renderer.ChunkBackupPath(asset.ID))
	if err != nil {
		return nil
	}
	defer f.Close()

	var restored []storage.ChunkRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	skipped := 0
	for scanner.Scan() {
		var line chunkBackupLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil || line.ChunkID == "" {
			skipped++
			continue
		}
		restored = append(restored, storage.ChunkRecord{
			ID: line.ChunkID, SubjectID: line.SubjectID, AssetID: line.AssetID, PageNum: line.PageNum,
			Text: line.Text, BBoxJSON: line.BBox, StartBlock: line.StartBlock, EndBlock: line.EndBlock,
		})
	}

	for i := range restored {
		if err := p.chunks.Upsert(ctx, &restored[i]); err != nil {
			logger.WarnContext(ctx, "failed to restore chunk from backup", "asset_id", asset.ID, "chunk_id", restored[i].ID, "error", err)
		}
	}
	if len(restored) > 0 {
		logger.InfoContext(ctx, "restored chunks from backup", "asset_id", asset.ID, "count", len(restored), "skipped", skipped)
	}
	return restored
}

// Summary reports the outcome of a batch run over a subject's assets.
type Summary struct {
	Processed      int             `json:"processed"`
	Indexed        int             `json:"indexed"`
	Failed         int             `json:"failed"`
	SkippedMissing int             `json:"skipped_missing"`
	Details        []SummaryDetail `json:"details"`
}

// SummaryDetail is the per-asset line of a batch summary.
type SummaryDetail struct {
	AssetID string `json:"asset_id"`
	Stage   string `json:"stage"`
	Error   string `json:"error,omitempty"`
}

// ProcessSubjectAssets runs the pipeline over every asset of a subject. One
// bad asset does not abort the batch. limit bounds how many assets are fully
// processed in this invocation (limit <= 0 means unlimited); assets that were
// already indexed do not consume the limit.
func (p *Pipeline) ProcessSubjectAssets(ctx context.Context, subjectID string, limit int, force bool) (Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	assets, err := p.assets.ListBySubject(ctx, subjectID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list assets: %w", err)
	}

	var summary Summary
	remaining := limit
	for _, asset := range assets {
		if limit > 0 && remaining <= 0 {
			break
		}

		result, err := p.ProcessAsset(ctx, asset.ID, force)
		detail := SummaryDetail{AssetID: asset.ID, Stage: result.FinalStage}

		switch {
		case errors.Is(err, ErrAssetMissing):
			summary.SkippedMissing++
			detail.Error = err.Error()
		case err != nil:
			summary.Failed++
			detail.Error = err.Error()
		case result.FinalStage == storage.StageIndexed:
			summary.Indexed++
			if result.Ran {
				summary.Processed++
				remaining--
			}
		}
		summary.Details = append(summary.Details, detail)
	}

	logger.InfoContext(ctx, "subject batch processed",
		"subject_id", subjectID,
		"processed", summary.Processed,
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"skipped_missing", summary.SkippedMissing,
	)
	return summary, nil
}

func preview(text string) string {
	if len(text) <= PreviewChars {
		return text
	}
	return text[:PreviewChars]
}
