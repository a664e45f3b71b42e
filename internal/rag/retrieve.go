package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
)

// Retriever runs similarity search and turns raw vector hits into hydrated,
// citeable hits.
type Retriever struct {
	vectors    vectorstore.VectorStore
	chunks     storage.ChunkStore
	collection string
}

// NewRetriever creates a retriever over the given collection.
func NewRetriever(vectors vectorstore.VectorStore, chunks storage.ChunkStore, collection string) *Retriever {
	return &Retriever{vectors: vectors, chunks: chunks, collection: collection}
}

// RetrieveOutcome reports what retrieval did beyond the hits themselves.
type RetrieveOutcome struct {
	Hits              []Hit
	RawCount          int
	DroppedUnciteable int
	FilterRetried     bool
}

// Retrieve searches with a subject filter when subjectID is non-empty. A
// filtered search returning zero hits is retried exactly once without the
// filter (older points may predate subject tagging); the retry is flagged so
// the caller can surface it. Hits missing display fields are hydrated from
// the chunk store; hits that still cannot be cited are dropped and logged.
func (r *Retriever) Retrieve(ctx context.Context, queryVec []float32, subjectID string, k int) (RetrieveOutcome, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var outcome RetrieveOutcome

	filters := map[string]any{}
	if subjectID != "" {
		filters["subject_id"] = subjectID
	}

	results, err := r.vectors.Search(ctx, r.collection, queryVec, k, filters)
	if err != nil {
		return outcome, fmt.Errorf("vector search failed: %w", err)
	}

	if len(results) == 0 && subjectID != "" {
		logger.WarnContext(ctx, "no hits with subject filter, retrying unfiltered", "subject_id", subjectID)
		outcome.FilterRetried = true
		results, err = r.vectors.Search(ctx, r.collection, queryVec, k, nil)
		if err != nil {
			return outcome, fmt.Errorf("unfiltered vector search failed: %w", err)
		}
	}
	outcome.RawCount = len(results)

	for _, result := range results {
		hit, ok := r.hydrate(ctx, result)
		if !ok {
			outcome.DroppedUnciteable++
			continue
		}
		outcome.Hits = append(outcome.Hits, hit)
	}

	if outcome.DroppedUnciteable > 0 {
		logger.WarnContext(ctx, "dropped unciteable hits", "count", outcome.DroppedUnciteable)
	}
	return outcome, nil
}

// hydrate maps a payload to a Hit, backfilling text and page_num from the
// chunk store when an older indexing format left them out of the payload.
func (r *Retriever) hydrate(ctx context.Context, result vectorstore.SearchResult) (Hit, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	hit := Hit{
		ChunkID:      metaString(result.Meta, "chunk_id"),
		SubjectID:    metaString(result.Meta, "subject_id"),
		AssetID:      metaString(result.Meta, "asset_id"),
		NotesID:      metaString(result.Meta, "notes_id"),
		PageNum:      metaInt(result.Meta, "page_num"),
		StartBlock:   metaInt(result.Meta, "start_block"),
		Text:         metaString(result.Meta, "text"),
		Preview:      metaString(result.Meta, "preview"),
		SourceType:   metaString(result.Meta, "source_type"),
		SectionTitle: metaString(result.Meta, "section_title"),
		SourceLabel:  metaString(result.Meta, "source_label"),
		Score:        result.Score,
	}
	if hit.SourceType == "" {
		hit.SourceType = "slide"
	}

	if (hit.Text == "" || hit.PageNum == 0) && hit.ChunkID != "" && hit.SourceType == "slide" {
		chunk, err := r.chunks.GetByID(ctx, hit.ChunkID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			logger.WarnContext(ctx, "hit references unknown chunk", "chunk_id", hit.ChunkID)
		case err != nil:
			logger.WarnContext(ctx, "failed to hydrate hit", "chunk_id", hit.ChunkID, "error", err)
		default:
			if hit.Text == "" {
				hit.Text = chunk.Text
			}
			if hit.PageNum == 0 {
				hit.PageNum = chunk.PageNum
			}
			if hit.AssetID == "" {
				hit.AssetID = chunk.AssetID
			}
			if hit.SubjectID == "" {
				hit.SubjectID = chunk.SubjectID
			}
			hit.StartBlock = chunk.StartBlock
		}
	}

	if hit.Text == "" || (hit.ChunkID == "" && hit.NotesID == "") {
		logger.WarnContext(ctx, "dropping unciteable hit", "point_id", result.PointID, "score", result.Score)
		return Hit{}, false
	}
	if hit.Preview == "" {
		hit.Preview = previewOf(hit.Text)
	}
	return hit, true
}

const hitPreviewChars = 200

func previewOf(text string) string {
	if len(text) <= hitPreviewChars {
		return text
	}
	return text[:hitPreviewChars]
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
