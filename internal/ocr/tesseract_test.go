package ocr

import (
	"strconv"
	"strings"
	"testing"
)

const tsvHeader = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext"

func tsvRow(level, block, par, line int, left, top, width, height, conf, text string) string {
	return strings.Join([]string{
		strconv.Itoa(level), "1", strconv.Itoa(block), strconv.Itoa(par), strconv.Itoa(line), "1",
		left, top, width, height, conf, text,
	}, "\t")
}

func TestParseTSVGroupsWordsIntoLines(t *testing.T) {
	output := strings.Join([]string{
		tsvHeader,
		tsvRow(1, 1, 1, 1, "0", "0", "100", "100", "-1", ""), // page level, skipped
		tsvRow(5, 1, 1, 1, "0", "0", "20", "10", "90", "Hello"),
		tsvRow(5, 1, 1, 1, "25", "0", "30", "10", "80", "world"),
		tsvRow(5, 1, 1, 2, "0", "20", "40", "10", "70", "second"),
		tsvRow(5, 1, 1, 2, "45", "20", "20", "12", "-1", "??"), // conf -1 excluded from mean
		"",
	}, "\n")

	res := parseTSV(output, 7)
	if res.Page != 7 {
		t.Errorf("page = %d, want 7", res.Page)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(res.Blocks))
	}

	first := res.Blocks[0]
	if first.Text != "Hello world" {
		t.Errorf("text = %q, want joined words", first.Text)
	}
	if first.BBox != [4]float64{0, 0, 55, 10} {
		t.Errorf("bbox = %v, want union of word boxes", first.BBox)
	}
	if first.Confidence != 0.85 {
		t.Errorf("confidence = %v, want mean 0.85", first.Confidence)
	}

	second := res.Blocks[1]
	if second.Text != "second ??" {
		t.Errorf("text = %q", second.Text)
	}
	// Only the conf>=0 word contributes to the mean.
	if second.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", second.Confidence)
	}
	if second.BBox != [4]float64{0, 20, 65, 32} {
		t.Errorf("bbox = %v", second.BBox)
	}
}

func TestParseTSVIgnoresMalformedRows(t *testing.T) {
	output := strings.Join([]string{
		tsvHeader,
		"short\trow",
		tsvRow(5, 1, 1, 1, "0", "0", "10", "10", "95", "ok"),
		tsvRow(5, 1, 1, 1, "12", "0", "10", "10", "95", "   "), // empty text, skipped
	}, "\n")

	res := parseTSV(output, 1)
	if len(res.Blocks) != 1 || res.Blocks[0].Text != "ok" {
		t.Errorf("blocks = %+v", res.Blocks)
	}
}

func TestParseTSVEmpty(t *testing.T) {
	res := parseTSV(tsvHeader+"\n", 1)
	if len(res.Blocks) != 0 {
		t.Errorf("got %+v, want no blocks", res.Blocks)
	}
}
