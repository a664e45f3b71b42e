package ocr

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/ocr Engine

import "context"

// Block is one recognized region of text with its bounding box in page
// coordinates ([x1, y1, x2, y2]) and the engine's confidence in [0, 1].
type Block struct {
	Text       string     `json:"text"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// Result is the canonical OCR output schema for a single page. Every engine's
// raw output is normalized into this shape before anything downstream sees it.
type Result struct {
	Page   int     `json:"page"`
	Blocks []Block `json:"blocks"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Engine is the OCR capability: one page image in, normalized blocks out.
type Engine interface {
	// Name identifies the concrete engine ("tesseract", "stub").
	Name() string
	// OCRPage runs OCR on a page image and returns a normalized result.
	OCRPage(ctx context.Context, imagePath string, pageNum int) (Result, error)
}
