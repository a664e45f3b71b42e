package storage

import "time"

// Pipeline stages, in processing order. The stage value persisted on the
// asset_index_status row is a cross-process contract: external tooling reads
// exactly these strings.
const (
	StageStored   = "stored"
	StageRendered = "rendered"
	StageOCRDone  = "ocr_done"
	StageChunked  = "chunked"
	StageEmbedded = "embedded"
	StageIndexed  = "indexed"
	StageMissing  = "missing"
	StageFailed   = "failed"
)

// StageOrder lists every stage in strict progression order, terminal states last.
var StageOrder = []string{
	StageStored, StageRendered, StageOCRDone, StageChunked, StageEmbedded, StageIndexed,
	StageMissing, StageFailed,
}

// StageIndexOf returns the position of a stage in StageOrder, or -1 for unknown values.
func StageIndexOf(stage string) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Subject is a user-defined namespace grouping related assets and notes.
type Subject struct {
	ID        string // slug, unique
	Name      string
	CreatedAt time.Time
}

// Asset represents an uploaded source file (PDF or image).
type Asset struct {
	ID               string // sha256 prefix, so identical bytes dedupe
	SubjectID        string
	OriginalFilename string
	StoredPath       string
	SHA256           string
	SizeBytes        int64
	MimeType         string
	CreatedAt        time.Time
	Status           string // mirror of the latest pipeline stage
}

// IndexStatus tracks how far an asset has progressed through the pipeline.
// It is the single source of truth for resumability.
type IndexStatus struct {
	AssetID   string
	Stage     string
	Error     string
	OCREngine string
	Warning   string
	UpdatedAt time.Time
}

// PageRecord is one rendered page of an asset.
type PageRecord struct {
	AssetID   string
	PageNum   int // 1-based
	ImagePath string
	Width     int
	Height    int
}

// OCRPageRecord stores per-page OCR output location and aggregate stats.
type OCRPageRecord struct {
	AssetID      string
	PageNum      int
	OCRJSONPath  string
	TextLen      int
	AvgConf      float64
	NeedsCaption bool
}

// ChunkRecord is a content-addressed span of OCR'd text, the unit of retrieval.
type ChunkRecord struct {
	ID         string // sha256(asset:page:start:end) hex prefix
	SubjectID  string
	AssetID    string
	PageNum    int
	Text       string
	BBoxJSON   string
	StartBlock int
	EndBlock   int
	CreatedAt  time.Time
}

// NotesRecord is a versioned markdown document derived from an asset's chunks.
type NotesRecord struct {
	ID          string
	SubjectID   string
	AssetID     string
	Version     int
	Markdown    string
	GeneratedBy string // "llm" or "user"
	CreatedAt   time.Time
	UpdatedAt   time.Time
	MetaJSON    string
}

// NotesChunkRecord is a derived chunk of a notes version. These rows are
// deleted and rebuilt wholesale on every version change.
type NotesChunkRecord struct {
	ID           string
	NotesID      string
	SubjectID    string
	AssetID      string
	SectionTitle string
	Text         string
	CreatedAt    time.Time
}
