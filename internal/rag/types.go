package rag

import "github.com/Jitarth1102/rag-study-assistant/internal/llm"

// AskRequest represents a retrieval-augmented query.
type AskRequest struct {
	// SubjectID scopes the search to one subject. Empty searches everything.
	SubjectID string `json:"subject_id,omitempty"`
	// Question is the user's question to answer.
	Question string `json:"question"`
	// TopK optionally overrides the configured result count.
	TopK int `json:"top_k,omitempty"`
	// ForceWeb escalates to web search even when local context is strong.
	ForceWeb bool `json:"force_web,omitempty"`
}

// Citation points at a piece of source material the answer drew from.
type Citation struct {
	// Type is "slide", "notes", or "web".
	Type    string `json:"type"`
	AssetID string `json:"asset_id,omitempty"`
	NotesID string `json:"notes_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	PageNum int    `json:"page_num,omitempty"`
	ChunkID string `json:"chunk_id,omitempty"`
	Quote   string `json:"quote,omitempty"`
}

// AskResponse is the answer with its provenance and diagnostics.
type AskResponse struct {
	Answer    string          `json:"answer"`
	Citations []Citation      `json:"citations"`
	UsedWeb   bool            `json:"used_web"`
	Debug     *RetrievalDebug `json:"debug,omitempty"`
}

// Hit is a hydrated retrieval hit, ready for prompting and citation.
type Hit struct {
	ChunkID      string  `json:"chunk_id"`
	SubjectID    string  `json:"subject_id"`
	AssetID      string  `json:"asset_id"`
	NotesID      string  `json:"notes_id,omitempty"`
	PageNum      int     `json:"page_num"`
	StartBlock   int     `json:"start_block"`
	Text         string  `json:"text"`
	Preview      string  `json:"preview"`
	SourceType   string  `json:"source_type"`
	SectionTitle string  `json:"section_title,omitempty"`
	SourceLabel  string  `json:"source_label,omitempty"`
	Score        float32 `json:"score"`
	// Neighbor marks context recovered by page-window expansion rather than
	// similarity search.
	Neighbor bool `json:"neighbor,omitempty"`
}

// HitPreview is the trimmed view of a hit carried in the debug object.
type HitPreview struct {
	ChunkID string  `json:"chunk_id"`
	AssetID string  `json:"asset_id"`
	PageNum int     `json:"page_num"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

// JudgeDebug records the web-escalation outcome for the debug object.
type JudgeDebug struct {
	Reason      string `json:"reason"`
	QueryCount  int    `json:"query_count,omitempty"`
	ResultCount int    `json:"result_count,omitempty"`
}

// RetrievalDebug accompanies every response. With this many silent-degradation
// paths upstream (OCR fallback, hydration fallback, filter retry) the debug
// object is the only way to see what actually happened.
type RetrievalDebug struct {
	EmbeddingStats              llm.EmbeddingStats `json:"embedding_stats"`
	HitCountRaw                 int                `json:"hit_count_raw"`
	HitCountAfterFilter         int                `json:"hit_count_after_filter"`
	DroppedUnciteable           int                `json:"dropped_unciteable,omitempty"`
	FilterRetriedWithoutSubject bool               `json:"filter_retried_without_subject"`
	MinScoreRelaxed             bool               `json:"min_score_relaxed,omitempty"`
	NeighborChunksAdded         int                `json:"neighbor_chunks_added,omitempty"`
	TopHitsPreview              []HitPreview       `json:"top_hits_preview"`
	Judge                       *JudgeDebug        `json:"judge,omitempty"`
}
