package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractEngine shells out to the tesseract binary and parses its TSV output.
type TesseractEngine struct {
	cmd  string
	lang string
}

// NewTesseractEngine creates a tesseract-backed engine. cmd may be an explicit
// binary path; when empty, PATH resolution is used. Returns an error if no
// usable binary is found so the resolution chain can fall through.
func NewTesseractEngine(cmd, lang string) (*TesseractEngine, error) {
	if cmd == "" {
		cmd = "tesseract"
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found: %w", err)
	}
	if lang == "" {
		lang = "eng"
	}
	return &TesseractEngine{cmd: resolved, lang: lang}, nil
}

// Name identifies the engine.
func (e *TesseractEngine) Name() string { return "tesseract" }

// Cmd returns the resolved binary path, for diagnostics.
func (e *TesseractEngine) Cmd() string { return e.cmd }

// OCRPage runs tesseract in TSV mode and normalizes its output. Words are
// grouped into line-level blocks with a union bounding box and mean confidence.
func (e *TesseractEngine) OCRPage(ctx context.Context, imagePath string, pageNum int) (Result, error) {
	cmd := exec.CommandContext(ctx, e.cmd, imagePath, "stdout", "-l", e.lang, "tsv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseTSV(stdout.String(), pageNum), nil
}

type tsvLineKey struct {
	block, par, line int
}

type tsvLineAccum struct {
	order     int
	words     []string
	bbox      [4]float64
	confSum   float64
	confCount int
}

// parseTSV groups tesseract's word rows by (block, paragraph, line).
// TSV columns: level page block par line word left top width height conf text.
func parseTSV(output string, pageNum int) Result {
	lines := strings.Split(output, "\n")
	accums := make(map[tsvLineKey]*tsvLineAccum)
	order := 0

	for i, row := range lines {
		if i == 0 || strings.TrimSpace(row) == "" {
			continue // header or blank
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 {
			continue
		}
		level, _ := strconv.Atoi(cols[0])
		if level != 5 { // word level
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}

		block, _ := strconv.Atoi(cols[2])
		par, _ := strconv.Atoi(cols[3])
		lineNum, _ := strconv.Atoi(cols[4])
		left, _ := strconv.ParseFloat(cols[6], 64)
		top, _ := strconv.ParseFloat(cols[7], 64)
		width, _ := strconv.ParseFloat(cols[8], 64)
		height, _ := strconv.ParseFloat(cols[9], 64)
		conf, _ := strconv.ParseFloat(cols[10], 64)

		key := tsvLineKey{block: block, par: par, line: lineNum}
		acc, ok := accums[key]
		if !ok {
			acc = &tsvLineAccum{order: order, bbox: [4]float64{left, top, left + width, top + height}}
			accums[key] = acc
			order++
		}
		acc.words = append(acc.words, text)
		if left < acc.bbox[0] {
			acc.bbox[0] = left
		}
		if top < acc.bbox[1] {
			acc.bbox[1] = top
		}
		if left+width > acc.bbox[2] {
			acc.bbox[2] = left + width
		}
		if top+height > acc.bbox[3] {
			acc.bbox[3] = top + height
		}
		if conf >= 0 {
			acc.confSum += conf
			acc.confCount++
		}
	}

	ordered := make([]*tsvLineAccum, len(accums))
	for _, acc := range accums {
		ordered[acc.order] = acc
	}

	result := Result{Page: pageNum, Blocks: []Block{}}
	for _, acc := range ordered {
		if acc == nil {
			continue
		}
		conf := 0.0
		if acc.confCount > 0 {
			// tesseract reports confidence 0-100
			conf = acc.confSum / float64(acc.confCount) / 100.0
		}
		result.Blocks = append(result.Blocks, Block{
			Text:       strings.Join(acc.words, " "),
			BBox:       acc.bbox,
			Confidence: conf,
		})
	}
	return result
}
