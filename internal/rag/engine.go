package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/llm"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
)

// NothingIndexedAnswer is returned when the vector collection is empty.
const NothingIndexedAnswer = "Nothing has been indexed yet. Upload some material and run indexing first."

// Engine answers questions over the indexed corpus.
type Engine interface {
	// Ask answers a question, degrading internal failures into a textual
	// answer so callers always get something renderable.
	Ask(ctx context.Context, req AskRequest) AskResponse
	// Answer is the strict variant: internal failures surface as errors.
	Answer(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Config holds the engine's retrieval and escalation parameters.
type Config struct {
	Collection        string
	VectorSize        int
	TopK              int
	MinScore          float32
	NeighborWindow    int
	MaxNeighborChunks int
	MaxWebQueries     int
	WebContextBudget  int
	Judge             JudgePolicy
}

type engine struct {
	embedder  llm.Embedder
	generator llm.Generator
	vectors   vectorstore.VectorStore
	retriever *Retriever
	searcher  websearch.Searcher
	cfg       Config
}

// NewEngine creates a retrieval-augmented answering engine.
func NewEngine(
	embedder llm.Embedder,
	generator llm.Generator,
	vectors vectorstore.VectorStore,
	retriever *Retriever,
	searcher websearch.Searcher,
	cfg Config,
) Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &engine{
		embedder:  embedder,
		generator: generator,
		vectors:   vectors,
		retriever: retriever,
		searcher:  searcher,
		cfg:       cfg,
	}
}

// Ask wraps Answer, converting internal errors into a textual answer.
func (e *engine) Ask(ctx context.Context, req AskRequest) AskResponse {
	resp, err := e.Answer(ctx, req)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "ask failed", "error", err)
		return AskResponse{
			Answer:    fmt.Sprintf("Something went wrong while answering: %v", err),
			Citations: []Citation{},
		}
	}
	return resp
}

// Answer runs the full retrieval flow: embed, search with filter retry,
// hydrate, threshold, expand with neighbors, judge web escalation, generate.
func (e *engine) Answer(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		return AskResponse{}, fmt.Errorf("question must not be empty")
	}

	info, err := e.vectors.GetCollectionInfo(ctx, e.cfg.Collection)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to get collection info: %w", err)
	}
	if info.PointsCount == 0 {
		logger.InfoContext(ctx, "collection is empty, nothing to retrieve")
		return AskResponse{Answer: NothingIndexedAnswer, Citations: []Citation{}}, nil
	}

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{req.Question})
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return AskResponse{}, fmt.Errorf("no embedding returned for question")
	}
	queryVec := embeddings[0]
	if err := llm.ValidateQueryEmbedding(queryVec, e.cfg.VectorSize); err != nil {
		return AskResponse{}, fmt.Errorf("query embedding rejected: %w", err)
	}

	debug := &RetrievalDebug{EmbeddingStats: llm.AnalyzeEmbedding(queryVec)}

	k := req.TopK
	if k <= 0 {
		k = e.cfg.TopK
	}

	outcome, err := e.retriever.Retrieve(ctx, queryVec, req.SubjectID, k)
	if err != nil {
		return AskResponse{}, err
	}
	debug.HitCountRaw = outcome.RawCount
	debug.DroppedUnciteable = outcome.DroppedUnciteable
	debug.FilterRetriedWithoutSubject = outcome.FilterRetried

	hits := e.applyMinScore(ctx, outcome.Hits, debug)
	debug.HitCountAfterFilter = len(hits)
	debug.TopHitsPreview = topPreviews(hits, 3)

	before := len(hits)
	hits = ExpandNeighbors(ctx, e.retriever.chunks, hits, e.cfg.NeighborWindow, e.cfg.MaxNeighborChunks)
	debug.NeighborChunksAdded = len(hits) - before

	topScore := 0.0
	if len(hits) > 0 {
		topScore = float64(hits[0].Score)
	}
	decision := ShouldSearchWeb(req.Question, debug.HitCountAfterFilter, topScore, req.ForceWeb, e.cfg.Judge)
	debug.Judge = &JudgeDebug{Reason: decision.Reason}

	var webResults []websearch.Result
	if decision.DoSearch {
		webResults = e.runWebQueries(ctx, decision.SuggestedQueries, debug.Judge)
	}

	prompt := e.buildPrompt(req.Question, hits, webResults)
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	resp := AskResponse{
		Answer:    answer,
		Citations: buildCitations(hits, webResults),
		UsedWeb:   len(webResults) > 0,
		Debug:     debug,
	}
	logger.InfoContext(ctx, "question answered",
		"subject_id", req.SubjectID,
		"hits", len(hits),
		"used_web", resp.UsedWeb,
		"judge_reason", decision.Reason,
	)
	return resp, nil
}

// applyMinScore drops hits below the configured similarity floor, but falls
// back to the unthresholded list rather than returning nothing.
func (e *engine) applyMinScore(ctx context.Context, hits []Hit, debug *RetrievalDebug) []Hit {
	if e.cfg.MinScore <= 0 || len(hits) == 0 {
		return hits
	}
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= e.cfg.MinScore {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "no hits above min score, relaxing threshold", "min_score", e.cfg.MinScore)
		debug.MinScoreRelaxed = true
		return hits
	}
	return kept
}

// runWebQueries issues up to MaxWebQueries searches and dedupes results by URL.
func (e *engine) runWebQueries(ctx context.Context, suggested []string, judgeDebug *JudgeDebug) []websearch.Result {
	logger := contextutil.LoggerFromContext(ctx)

	queries := websearch.BuildWebQueries(websearch.QueryInputs{Intents: suggested}, e.cfg.MaxWebQueries)
	judgeDebug.QueryCount = len(queries)

	seen := make(map[string]bool)
	var results []websearch.Result
	for _, query := range queries {
		found, err := e.searcher.Search(ctx, query, 0)
		if err != nil {
			logger.WarnContext(ctx, "web search failed", "query", query, "error", err)
			continue
		}
		for _, r := range found {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			results = append(results, r)
		}
	}
	judgeDebug.ResultCount = len(results)
	return results
}

func (e *engine) buildPrompt(question string, hits []Hit, webResults []websearch.Result) string {
	var b strings.Builder

	b.WriteString("You are a study assistant. Answer the question using the provided material. ")
	b.WriteString("If the material does not contain enough information, say so. Cite pages when possible.\n\n")

	b.WriteString("--- Indexed material ---\n")
	for _, h := range hits {
		switch h.SourceType {
		case "notes":
			fmt.Fprintf(&b, "[Notes: %s]", h.NotesID)
			if h.SectionTitle != "" {
				fmt.Fprintf(&b, " Section: %s", h.SectionTitle)
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "[Asset: %s, page %d]\n", h.AssetID, h.PageNum)
		}
		b.WriteString(h.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("--- End indexed material ---\n\n")

	if len(webResults) > 0 {
		b.WriteString("--- Web results ---\n")
		b.WriteString(webContext(webResults, e.cfg.WebContextBudget))
		b.WriteString("\n--- End web results ---\n\n")
		b.WriteString("Prefer the indexed material; use web results only to fill gaps, and attribute web-sourced claims to their URL.\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// webContext concatenates snippets under the character budget.
func webContext(results []websearch.Result, budget int) string {
	if budget <= 0 {
		budget = 1200
	}
	var b strings.Builder
	for _, r := range results {
		entry := fmt.Sprintf("%s (%s)\n%s\n\n", r.Title, r.URL, r.Snippet)
		if b.Len()+len(entry) > budget {
			remaining := budget - b.Len()
			if remaining > 0 {
				b.WriteString(entry[:remaining])
			}
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimSpace(b.String())
}

// buildCitations dedupes by chunk identity and tags each citation by type so
// the presentation layer can group them.
func buildCitations(hits []Hit, webResults []websearch.Result) []Citation {
	seen := make(map[string]bool)
	citations := make([]Citation, 0, len(hits)+len(webResults))

	for _, h := range hits {
		identity := hitIdentity(h.ChunkID, h.AssetID, h.PageNum, h.StartBlock)
		if seen[identity] {
			continue
		}
		seen[identity] = true

		citation := Citation{
			Type:    h.SourceType,
			AssetID: h.AssetID,
			NotesID: h.NotesID,
			PageNum: h.PageNum,
			ChunkID: h.ChunkID,
			Quote:   h.Preview,
		}
		if h.SourceType == "notes" {
			citation.Title = h.SectionTitle
		}
		citations = append(citations, citation)
	}

	for _, r := range webResults {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		citations = append(citations, Citation{Type: "web", URL: r.URL, Title: r.Title, Quote: r.Snippet})
	}
	return citations
}

func topPreviews(hits []Hit, n int) []HitPreview {
	previews := make([]HitPreview, 0, n)
	for i, h := range hits {
		if i >= n {
			break
		}
		previews = append(previews, HitPreview{
			ChunkID: h.ChunkID,
			AssetID: h.AssetID,
			PageNum: h.PageNum,
			Score:   h.Score,
			Preview: h.Preview,
		})
	}
	return previews
}
