package ocr

import "context"

// StubPlaceholderText marks OCR output produced by the guaranteed-success stub.
const StubPlaceholderText = "(OCR stub: no OCR engine available)"

// StubEngine is the fallback of last resort. It always succeeds and returns a
// single placeholder block, trading silent degradation for pipeline robustness.
type StubEngine struct{}

// NewStubEngine creates a stub OCR engine.
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

// Name identifies the engine.
func (e *StubEngine) Name() string { return "stub" }

// OCRPage returns a single placeholder block.
func (e *StubEngine) OCRPage(_ context.Context, _ string, pageNum int) (Result, error) {
	return Result{
		Page: pageNum,
		Blocks: []Block{
			{Text: StubPlaceholderText, BBox: defaultBBox(), Confidence: 0},
		},
	}, nil
}
