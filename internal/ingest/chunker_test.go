package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Jitarth1102/rag-study-assistant/internal/ocr"
)

func block(text string, x, y float64) ocr.Block {
	return ocr.Block{Text: text, BBox: [4]float64{x, y, x + 10, y + 10}, Confidence: 90}
}

func TestChunkPageReadingOrder(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block("right", 50, 0),
		block("bottom", 0, 100),
		block("left", 0, 0),
		{Text: "", BBox: [4]float64{0, 0, 1, 1}}, // dropped
	}}

	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 1000})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if got, want := chunks[0].Text, "left\nright\nbottom"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if chunks[0].StartBlock != 0 || chunks[0].EndBlock != 2 {
		t.Errorf("block span = [%d,%d], want [0,2]", chunks[0].StartBlock, chunks[0].EndBlock)
	}

	var bbox [4]float64
	if err := json.Unmarshal([]byte(chunks[0].BBoxJSON), &bbox); err != nil {
		t.Fatalf("bad bbox json: %v", err)
	}
	if bbox != [4]float64{0, 0, 60, 110} {
		t.Errorf("union bbox = %v", bbox)
	}
}

func TestChunkPageSplitsWithOverlap(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block(strings.Repeat("a", 10), 0, 0),
		block(strings.Repeat("b", 10), 0, 10),
		block(strings.Repeat("c", 10), 0, 20),
		block(strings.Repeat("d", 10), 0, 30),
	}}

	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 20, OverlapBlocks: 1})
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	wantSpans := [][2]int{{0, 1}, {1, 2}, {2, 3}}
	for i, want := range wantSpans {
		if chunks[i].StartBlock != want[0] || chunks[i].EndBlock != want[1] {
			t.Errorf("chunk %d span = [%d,%d], want %v", i, chunks[i].StartBlock, chunks[i].EndBlock, want)
		}
	}
}

func TestChunkPageNoOverlap(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block(strings.Repeat("a", 10), 0, 0),
		block(strings.Repeat("b", 10), 0, 10),
		block(strings.Repeat("c", 10), 0, 20),
		block(strings.Repeat("d", 10), 0, 30),
	}}

	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 20})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].EndBlock != 1 || chunks[1].StartBlock != 2 {
		t.Errorf("spans = [%d,%d] [%d,%d]", chunks[0].StartBlock, chunks[0].EndBlock, chunks[1].StartBlock, chunks[1].EndBlock)
	}
}

func TestChunkPageOverlapAlwaysAdvances(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block(strings.Repeat("a", 10), 0, 0),
		block(strings.Repeat("b", 10), 0, 10),
		block(strings.Repeat("c", 10), 0, 20),
	}}

	// Overlap larger than the chunk span would point back at start; the
	// chunker must still move forward one block per iteration.
	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 20, OverlapBlocks: 5})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[1].StartBlock != 1 {
		t.Errorf("second chunk start = %d, want 1", chunks[1].StartBlock)
	}
}

func TestChunkPageMinCharsExtendsPastMax(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block(strings.Repeat("a", 10), 0, 0),
		block(strings.Repeat("b", 10), 0, 10),
		block(strings.Repeat("c", 10), 0, 20),
	}}

	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 5, MinChars: 25})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].EndBlock != 2 {
		t.Errorf("EndBlock = %d, want 2 (min chars keeps accumulating)", chunks[0].EndBlock)
	}
}

func TestChunkPageOversizedBlock(t *testing.T) {
	res := ocr.Result{Blocks: []ocr.Block{
		block(strings.Repeat("x", 500), 0, 0),
		block("tail", 0, 10),
	}}

	chunks := ChunkPage("s1", "a1", 1, res, ChunkParams{MaxChars: 100})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].StartBlock != 0 || chunks[0].EndBlock != 0 {
		t.Errorf("oversized block span = [%d,%d], want [0,0]", chunks[0].StartBlock, chunks[0].EndBlock)
	}
}

func TestChunkPageEmpty(t *testing.T) {
	if got := ChunkPage("s1", "a1", 1, ocr.Result{}, ChunkParams{MaxChars: 100}); got != nil {
		t.Errorf("got %v, want nil for a page with no blocks", got)
	}
}

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("asset", 1, 0, 2)
	b := ChunkID("asset", 1, 0, 2)
	if a != b {
		t.Errorf("same inputs gave %q and %q", a, b)
	}
	if len(a) != 20 {
		t.Errorf("id length = %d, want 20", len(a))
	}
	if a == ChunkID("asset", 2, 0, 2) || a == ChunkID("other", 1, 0, 2) {
		t.Error("different inputs collided")
	}
}
