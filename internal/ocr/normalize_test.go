package ocr

import (
	"testing"
)

func TestNormalizeString(t *testing.T) {
	res := Normalize("  hello world  ", 3)
	if res.Page != 3 || len(res.Blocks) != 1 {
		t.Fatalf("got %+v", res)
	}
	if res.Blocks[0].Text != "hello world" || res.Blocks[0].BBox != defaultBBox() {
		t.Errorf("block = %+v", res.Blocks[0])
	}

	if res := Normalize("   ", 1); len(res.Blocks) != 0 {
		t.Errorf("blank string should normalize to no blocks, got %+v", res.Blocks)
	}
}

func TestNormalizeMap(t *testing.T) {
	raw := map[string]any{
		"width":  float64(800),
		"height": float64(600),
		"blocks": []any{
			map[string]any{
				"text":       "first block",
				"bbox":       []any{float64(1), float64(2), float64(3), float64(4)},
				"confidence": float64(0.9),
			},
			map[string]any{"text": "   "}, // empty after trim, dropped
			"not a map",                   // dropped
			map[string]any{"text": "no bbox"},
		},
	}

	res := Normalize(raw, 2)
	if res.Width != 800 || res.Height != 600 {
		t.Errorf("dimensions = %dx%d", res.Width, res.Height)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Blocks))
	}
	if res.Blocks[0].BBox != [4]float64{1, 2, 3, 4} || res.Blocks[0].Confidence != 0.9 {
		t.Errorf("block 0 = %+v", res.Blocks[0])
	}
	if res.Blocks[1].BBox != defaultBBox() {
		t.Errorf("missing bbox should default, got %v", res.Blocks[1].BBox)
	}
}

func TestNormalizeNestedLists(t *testing.T) {
	// [points, [text, conf]]
	raw := []any{
		[]any{
			[]any{[]any{float64(0), float64(0)}, []any{float64(10), float64(0)}, []any{float64(10), float64(5)}},
			[]any{"line one", float64(0.8)},
		},
		[]any{"bare pair", float64(0.5)},
		[]any{}, // too short, dropped
	}

	res := Normalize(raw, 1)
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Blocks))
	}
	if res.Blocks[0].Text != "line one" || res.Blocks[0].BBox != [4]float64{0, 0, 10, 5} {
		t.Errorf("block 0 = %+v", res.Blocks[0])
	}
	if res.Blocks[1].Text != "bare pair" || res.Blocks[1].Confidence != 0.5 {
		t.Errorf("block 1 = %+v", res.Blocks[1])
	}
}

func TestNormalizeUnknownShape(t *testing.T) {
	res := Normalize(42, 1)
	if len(res.Blocks) != 0 || res.Page != 1 {
		t.Errorf("got %+v, want empty result", res)
	}
}

func TestNormalizeResultPassThrough(t *testing.T) {
	in := Result{Page: 99, Width: 10, Height: 20, Blocks: []Block{
		{Text: " trimmed ", BBox: [4]float64{1, 1, 2, 2}, Confidence: 0.7},
		{Text: "", BBox: [4]float64{0, 0, 1, 1}},
		{Text: "zero bbox"},
	}}

	res := Normalize(in, 4)
	if res.Page != 4 {
		t.Errorf("page = %d, want the caller's page number", res.Page)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Blocks))
	}
	if res.Blocks[0].Text != "trimmed" {
		t.Errorf("text = %q", res.Blocks[0].Text)
	}
	if res.Blocks[1].BBox != defaultBBox() {
		t.Errorf("zero bbox should default, got %v", res.Blocks[1].BBox)
	}
}
