package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/llm"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
)

// Provenance labels carried per chunk so a partial manual edit does not
// relabel untouched machine-generated text.
const (
	LabelGenerated = "Generated Notes"
	LabelUserNotes = "From User Notes"
)

const notesPreviewChars = 240

// ChunkLabel records the provenance label of one notes chunk by its text.
type ChunkLabel struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Meta is the free-form telemetry persisted in the notes meta_json column.
type Meta struct {
	UsedWeb          bool                `json:"used_web"`
	QueriesAttempted int                 `json:"queries_attempted"`
	WebResults       int                 `json:"web_results"`
	SectionQueries   map[string][]string `json:"section_queries,omitempty"`
	SectionCitations map[string][]string `json:"section_citations,omitempty"`
	ChunkLabels      []ChunkLabel        `json:"chunk_labels,omitempty"`
}

// Result reports the outcome of a notes operation.
type Result struct {
	NotesID    string `json:"notes_id"`
	Version    int    `json:"version"`
	UsedWeb    bool   `json:"used_web"`
	ChunkCount int    `json:"chunk_count"`
}

// ServiceConfig tunes notes generation and indexing.
type ServiceConfig struct {
	Collection    string
	TargetChars   int
	MinChars      int
	ChunkChars    int
	ContextChars  int
	MaxWebQueries int
	Judge         rag.JudgePolicy
	ForceWeb      bool
}

// Service generates, versions, and re-indexes notes for assets.
type Service struct {
	notes    storage.NotesStore
	chunks   storage.ChunkStore
	assets   storage.AssetStore
	embedder llm.Embedder
	gen      llm.Generator
	searcher websearch.Searcher
	quality  *QualityLoop
	vectors  vectorstore.VectorStore
	cfg      ServiceConfig
}

// NewService creates the notes service.
func NewService(
	notes storage.NotesStore,
	chunks storage.ChunkStore,
	assets storage.AssetStore,
	embedder llm.Embedder,
	gen llm.Generator,
	searcher websearch.Searcher,
	quality *QualityLoop,
	vectors vectorstore.VectorStore,
	cfg ServiceConfig,
) *Service {
	if cfg.TargetChars <= 0 {
		cfg.TargetChars = 8000
	}
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = 1200
	}
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = 8000
	}
	return &Service{
		notes:    notes,
		chunks:   chunks,
		assets:   assets,
		embedder: embedder,
		gen:      gen,
		searcher: searcher,
		quality:  quality,
		vectors:  vectors,
		cfg:      cfg,
	}
}

// Generate creates (or regenerates) notes for an asset from its indexed
// chunks. Every run produces a new version of the same notes_id and fully
// replaces the derived chunks and vectors.
func (s *Service) Generate(ctx context.Context, subjectID, assetID string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	asset, err := s.ownedAsset(ctx, subjectID, assetID)
	if err != nil {
		return Result{}, err
	}

	chunks, err := s.chunks.ListByAsset(ctx, subjectID, assetID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return Result{}, service.WrapError(service.ErrInvalidInput,
			fmt.Sprintf("no indexed chunks for asset %q, run indexing first", assetID))
	}

	slidesContext := buildSlidesContext(chunks, s.cfg.ContextChars)
	assetTitle := asset.OriginalFilename
	if assetTitle == "" {
		assetTitle = assetID
	}

	webContext, webCitations, queriesAttempted := s.initialWebPass(ctx, assetTitle, len(chunks))

	draft, err := s.gen.Generate(ctx, s.draftPrompt(slidesContext, webContext))
	if err != nil {
		return Result{}, fmt.Errorf("draft generation failed: %w", err)
	}

	markdown, qmeta, err := s.quality.Run(ctx, draft, slidesContext, assetTitle)
	if err != nil {
		return Result{}, err
	}

	notesID := strings.ReplaceAll(uuid.NewString(), "-", "")
	version := 1
	if existing, err := s.notes.GetLatest(ctx, subjectID, assetID); err == nil {
		notesID = existing.ID
		version = existing.Version + 1
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("failed to load existing notes: %w", err)
	}

	sections := SplitSections(markdown)
	sectionChunks := ChunkSections(notesID, sections, s.cfg.ChunkChars)
	labels := make([]string, len(sectionChunks))
	for i := range labels {
		labels[i] = LabelGenerated
	}

	meta := Meta{
		UsedWeb:          len(webCitations) > 0 || qmeta.UsedWeb,
		QueriesAttempted: queriesAttempted + qmeta.WebQueries,
		WebResults:       len(webCitations) + qmeta.WebResults,
		SectionQueries:   qmeta.SectionQueries,
		SectionCitations: qmeta.SectionCitations,
		ChunkLabels:      chunkLabels(sectionChunks, labels),
	}

	count, err := s.persistVersion(ctx, notesID, subjectID, assetID, markdown, version, "llm", meta, sectionChunks, labels)
	if err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "notes generated",
		"notes_id", notesID, "version", version, "chunks", count, "used_web", meta.UsedWeb)
	return Result{NotesID: notesID, Version: version, UsedWeb: meta.UsedWeb, ChunkCount: count}, nil
}

// Update stores edited markdown as a new version. Provenance labels for
// unchanged chunks are carried forward by matching normalized text against
// the previous version's chunks; anything new is attributed to the editor.
func (s *Service) Update(ctx context.Context, notesID, markdown, editedBy string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	current, err := s.notes.GetByID(ctx, notesID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, service.WrapError(service.ErrNotFound, fmt.Sprintf("notes %q not found", notesID))
		}
		return Result{}, fmt.Errorf("failed to load notes: %w", err)
	}

	version := current.Version + 1
	generatedBy := "llm"
	if editedBy == "user" {
		generatedBy = "user"
	}

	meta := parseMeta(current.MetaJSON)
	labelPool := s.buildLabelPool(ctx, current, meta)

	sections := SplitSections(markdown)
	sectionChunks := ChunkSections(notesID, sections, s.cfg.ChunkChars)
	labels := resolveLabels(sectionChunks, labelPool)
	meta.ChunkLabels = chunkLabels(sectionChunks, labels)

	count, err := s.persistVersion(ctx, notesID, current.SubjectID, current.AssetID, markdown, version, generatedBy, meta, sectionChunks, labels)
	if err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "notes updated", "notes_id", notesID, "version", version, "chunks", count, "edited_by", editedBy)
	return Result{NotesID: notesID, Version: version, UsedWeb: meta.UsedWeb, ChunkCount: count}, nil
}

// SaveUserNotes creates or updates user-authored notes for an asset.
func (s *Service) SaveUserNotes(ctx context.Context, subjectID, assetID, markdown string) (Result, error) {
	if _, err := s.ownedAsset(ctx, subjectID, assetID); err != nil {
		return Result{}, err
	}

	if existing, err := s.notes.GetLatest(ctx, subjectID, assetID); err == nil {
		return s.Update(ctx, existing.ID, markdown, "user")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("failed to load existing notes: %w", err)
	}

	notesID := strings.ReplaceAll(uuid.NewString(), "-", "")
	sections := SplitSections(markdown)
	sectionChunks := ChunkSections(notesID, sections, s.cfg.ChunkChars)
	labels := make([]string, len(sectionChunks))
	for i := range labels {
		labels[i] = LabelUserNotes
	}
	meta := Meta{ChunkLabels: chunkLabels(sectionChunks, labels)}

	count, err := s.persistVersion(ctx, notesID, subjectID, assetID, markdown, 1, "user", meta, sectionChunks, labels)
	if err != nil {
		return Result{}, err
	}
	return Result{NotesID: notesID, Version: 1, ChunkCount: count}, nil
}

// Reindex rebuilds chunks and vectors for the latest stored version without
// touching the markdown.
func (s *Service) Reindex(ctx context.Context, notesID string) (Result, error) {
	current, err := s.notes.GetByID(ctx, notesID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, service.WrapError(service.ErrNotFound, fmt.Sprintf("notes %q not found", notesID))
		}
		return Result{}, fmt.Errorf("failed to load notes: %w", err)
	}

	meta := parseMeta(current.MetaJSON)
	labelPool := s.buildLabelPool(ctx, current, meta)

	sections := SplitSections(current.Markdown)
	sectionChunks := ChunkSections(notesID, sections, s.cfg.ChunkChars)
	labels := resolveLabels(sectionChunks, labelPool)
	meta.ChunkLabels = chunkLabels(sectionChunks, labels)

	count, err := s.persistVersion(ctx, notesID, current.SubjectID, current.AssetID, current.Markdown, current.Version, current.GeneratedBy, meta, sectionChunks, labels)
	if err != nil {
		return Result{}, err
	}
	return Result{NotesID: notesID, Version: current.Version, UsedWeb: meta.UsedWeb, ChunkCount: count}, nil
}

// GetLatest returns the newest notes version for an asset.
func (s *Service) GetLatest(ctx context.Context, subjectID, assetID string) (*storage.NotesRecord, error) {
	rec, err := s.notes.GetLatest(ctx, subjectID, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.WrapError(service.ErrNotFound,
				fmt.Sprintf("no notes for asset %q", assetID))
		}
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	return rec, nil
}

// DeleteByAsset removes all notes rows, chunks, and vectors for an asset.
func (s *Service) DeleteByAsset(ctx context.Context, subjectID, assetID string) error {
	rec, err := s.notes.GetLatest(ctx, subjectID, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load notes: %w", err)
	}
	if err := s.vectors.DeleteByNotesID(ctx, s.cfg.Collection, rec.ID); err != nil {
		return err
	}
	return s.notes.DeleteByAsset(ctx, assetID)
}

// persistVersion stores the notes row, rebuilds its derived chunk rows, and
// replaces its vector points. Dependent data is deleted before being rebuilt;
// there is no transaction spanning the relational and vector stores, only
// the delete-then-rebuild ordering.
func (s *Service) persistVersion(
	ctx context.Context,
	notesID, subjectID, assetID, markdown string,
	version int,
	generatedBy string,
	meta Meta,
	sectionChunks []SectionChunk,
	labels []string,
) (int, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notes meta: %w", err)
	}

	rec := &storage.NotesRecord{
		ID:          notesID,
		SubjectID:   subjectID,
		AssetID:     assetID,
		Version:     version,
		Markdown:    markdown,
		GeneratedBy: generatedBy,
		MetaJSON:    string(metaJSON),
	}
	if err := s.notes.Upsert(ctx, rec); err != nil {
		return 0, err
	}

	if err := s.notes.DeleteChunks(ctx, notesID); err != nil {
		return 0, err
	}
	for _, chunk := range sectionChunks {
		row := &storage.NotesChunkRecord{
			ID:           chunk.ID,
			NotesID:      notesID,
			SubjectID:    subjectID,
			AssetID:      assetID,
			SectionTitle: chunk.SectionTitle,
			Text:         chunk.Text,
		}
		if err := s.notes.InsertChunk(ctx, row); err != nil {
			return 0, err
		}
	}

	if err := s.embedAndUpsert(ctx, notesID, subjectID, assetID, version, meta, sectionChunks, labels); err != nil {
		return 0, err
	}
	return len(sectionChunks), nil
}

func (s *Service) embedAndUpsert(
	ctx context.Context,
	notesID, subjectID, assetID string,
	version int,
	meta Meta,
	sectionChunks []SectionChunk,
	labels []string,
) error {
	if err := s.vectors.DeleteByNotesID(ctx, s.cfg.Collection, notesID); err != nil {
		return err
	}
	if len(sectionChunks) == 0 {
		return nil
	}

	texts := make([]string, len(sectionChunks))
	for i, c := range sectionChunks {
		texts[i] = c.Text
	}
	vecs, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed notes chunks: %w", err)
	}
	if len(vecs) != len(sectionChunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(sectionChunks))
	}

	points := make([]vectorstore.Point, len(sectionChunks))
	for i, chunk := range sectionChunks {
		label := LabelGenerated
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		webURLs := meta.SectionCitations[chunk.SectionTitle]
		urls := make([]any, 0, len(webURLs))
		for _, u := range webURLs {
			urls = append(urls, u)
		}

		points[i] = vectorstore.Point{
			ID:  vectorstore.PointIDForNotesChunk(chunk.ID),
			Vec: vecs[i],
			Meta: map[string]any{
				"source_type":   "notes",
				"source_label":  label,
				"subject_id":    subjectID,
				"asset_id":      assetID,
				"notes_id":      notesID,
				"version":       version,
				"chunk_id":      chunk.ID,
				"section_title": chunk.SectionTitle,
				"text":          chunk.Text,
				"preview":       notesPreview(chunk.Text),
				"web_urls":      urls,
			},
		}
	}
	return s.vectors.Upsert(ctx, s.cfg.Collection, points)
}

// initialWebPass optionally seeds the draft with web context, reusing the
// retrieval judge with the chunk count standing in for hit count.
func (s *Service) initialWebPass(ctx context.Context, assetTitle string, chunkCount int) (string, []string, int) {
	logger := contextutil.LoggerFromContext(ctx)

	question := fmt.Sprintf("Generate study notes for %s", assetTitle)
	topScore := 0.0
	if chunkCount > 0 {
		topScore = 1.0
	}
	decision := rag.ShouldSearchWeb(question, chunkCount, topScore, s.cfg.ForceWeb, s.cfg.Judge)
	if !decision.DoSearch {
		return "", nil, 0
	}

	queries := websearch.BuildWebQueries(websearch.QueryInputs{Intents: decision.SuggestedQueries}, s.cfg.MaxWebQueries)
	seen := make(map[string]bool)
	var urls []string
	var b strings.Builder
	for _, query := range queries {
		found, err := s.searcher.Search(ctx, query, 0)
		if err != nil {
			logger.WarnContext(ctx, "notes web search failed", "query", query, "error", err)
			continue
		}
		for _, r := range found {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			entry := fmt.Sprintf("[web:%s] %s: %s\n", r.URL, r.Title, r.Snippet)
			if b.Len()+len(entry) > webSnippetBudget {
				break
			}
			b.WriteString(entry)
			urls = append(urls, r.URL)
		}
	}
	return b.String(), urls, len(queries)
}

func (s *Service) draftPrompt(slidesContext, webContext string) string {
	var b strings.Builder
	b.WriteString("You are a study assistant. Create detailed study notes in Markdown from the provided slides text")
	if webContext != "" {
		b.WriteString(" and the external web snippets")
	}
	b.WriteString(".\n\nSlides content:\n")
	b.WriteString(slidesContext)
	if webContext != "" {
		b.WriteString("\n\nExternal references (web):\n")
		b.WriteString(webContext)
	}
	fmt.Fprintf(&b, `

Instructions:
- Aim for about %d characters (minimum %d); make the notes comprehensive, detailed, and easy to understand.
- Use clear Markdown headings and bullets.
- Include definitions, intuition, stepwise derivations, worked examples, pitfalls, and recap questions where grounded.
- Include key formulas only when present in the slides, in LaTeX math delimiters ($...$ inline, $$...$$ block); fence code snippets.
- Include an "Exam Tips" section grounded in the content.
- Stay strictly grounded in provided content. Do not invent facts.`, s.cfg.TargetChars, s.cfg.MinChars)
	if webContext != "" {
		b.WriteString("\n- Integrate web snippets where appropriate, citing inline as [web:url].")
	}
	b.WriteString("\n\nReturn only Markdown.")
	return b.String()
}

func (s *Service) ownedAsset(ctx context.Context, subjectID, assetID string) (*storage.Asset, error) {
	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.WrapError(service.ErrNotFound, fmt.Sprintf("asset %q not found", assetID))
		}
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	if asset.SubjectID != subjectID {
		return nil, service.WrapError(service.ErrNotFound,
			fmt.Sprintf("asset %q not found for subject %q", assetID, subjectID))
	}
	return asset, nil
}

// buildLabelPool maps normalized chunk text to the labels of the previous
// version, preferring the recorded chunk_labels and falling back to a uniform
// label derived from who authored the previous version.
func (s *Service) buildLabelPool(ctx context.Context, current *storage.NotesRecord, meta Meta) map[string][]string {
	pool := make(map[string][]string)
	if len(meta.ChunkLabels) > 0 {
		for _, entry := range meta.ChunkLabels {
			norm := normalizeText(entry.Text)
			label := entry.Label
			if label == "" {
				label = LabelGenerated
			}
			pool[norm] = append(pool[norm], label)
		}
		return pool
	}

	prevLabel := LabelGenerated
	if current.GeneratedBy == "user" {
		prevLabel = LabelUserNotes
	}
	prevChunks, err := s.notes.ListChunks(ctx, current.ID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load previous chunks for labels", "notes_id", current.ID, "error", err)
		return pool
	}
	for _, chunk := range prevChunks {
		pool[normalizeText(chunk.Text)] = append(pool[normalizeText(chunk.Text)], prevLabel)
	}
	return pool
}

// resolveLabels carries a previous label forward for every chunk whose
// normalized text is unchanged; everything else is user-attributed.
func resolveLabels(chunks []SectionChunk, pool map[string][]string) []string {
	labels := make([]string, len(chunks))
	for i, chunk := range chunks {
		norm := normalizeText(chunk.Text)
		if queue := pool[norm]; len(queue) > 0 {
			labels[i] = queue[0]
			pool[norm] = queue[1:]
			continue
		}
		labels[i] = LabelUserNotes
	}
	return labels
}

func chunkLabels(chunks []SectionChunk, labels []string) []ChunkLabel {
	out := make([]ChunkLabel, 0, len(chunks))
	for i, chunk := range chunks {
		label := LabelGenerated
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		out = append(out, ChunkLabel{Text: chunk.Text, Label: label})
	}
	return out
}

func parseMeta(metaJSON string) Meta {
	var meta Meta
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &meta)
	}
	return meta
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// buildSlidesContext concatenates chunk texts in page order under the
// character budget, each prefixed with its page number.
func buildSlidesContext(chunks []storage.ChunkRecord, maxChars int) string {
	var b strings.Builder
	for _, chunk := range chunks {
		part := fmt.Sprintf("[page %d] %s", chunk.PageNum, chunk.Text)
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(part)
		if b.Len() >= maxChars {
			break
		}
	}
	context := b.String()
	if len(context) > maxChars {
		context = context[:maxChars]
	}
	return context
}

func notesPreview(text string) string {
	if len(text) <= notesPreviewChars {
		return text
	}
	return text[:notesPreviewChars]
}
