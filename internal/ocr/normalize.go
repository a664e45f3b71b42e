package ocr

import (
	"strconv"
	"strings"
)

func defaultBBox() [4]float64 {
	return [4]float64{0, 0, 1, 1}
}

// Normalize converts a raw OCR output of unknown shape into the canonical
// Result schema. Engines and historical OCR JSON files have produced plain
// strings, nested point-list structures, and pre-normalized maps; all of them
// are accepted here. Unrecognized shapes degrade to an empty block list, never
// an error, so one odd page cannot abort an ingest run.
func Normalize(raw any, pageNum int) Result {
	result := Result{Page: pageNum, Blocks: []Block{}}

	switch v := raw.(type) {
	case Result:
		return normalizeResult(v, pageNum)

	case map[string]any:
		if rawBlocks, ok := v["blocks"].([]any); ok {
			for _, rb := range rawBlocks {
				block, ok := normalizeMapBlock(rb)
				if !ok {
					continue
				}
				result.Blocks = append(result.Blocks, block)
			}
		}
		result.Width = asInt(v["width"])
		result.Height = asInt(v["height"])
		return result

	case string:
		text := strings.TrimSpace(v)
		if text != "" {
			result.Blocks = append(result.Blocks, Block{Text: text, BBox: defaultBBox()})
		}
		return result

	case []any:
		for _, line := range v {
			block, ok := normalizeListLine(line)
			if !ok {
				continue
			}
			result.Blocks = append(result.Blocks, block)
		}
		return result

	default:
		return result
	}
}

func normalizeResult(res Result, pageNum int) Result {
	out := Result{Page: pageNum, Blocks: []Block{}, Width: res.Width, Height: res.Height}
	for _, b := range res.Blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		bbox := b.BBox
		if bbox == ([4]float64{}) {
			bbox = defaultBBox()
		}
		out.Blocks = append(out.Blocks, Block{Text: text, BBox: bbox, Confidence: b.Confidence})
	}
	return out
}

func normalizeMapBlock(raw any) (Block, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Block{}, false
	}
	text := strings.TrimSpace(asString(m["text"]))
	if text == "" {
		return Block{}, false
	}
	bbox := defaultBBox()
	if rawBBox, ok := m["bbox"].([]any); ok && len(rawBBox) >= 4 {
		for i := 0; i < 4; i++ {
			bbox[i] = asFloat(rawBBox[i])
		}
	}
	return Block{Text: text, BBox: bbox, Confidence: asFloat(m["confidence"])}, true
}

// normalizeListLine handles the nested list shapes older engines emit:
// [points, [text, conf]], [points, text, conf], or [text, conf].
func normalizeListLine(raw any) (Block, bool) {
	line, ok := raw.([]any)
	if !ok || len(line) < 2 {
		return Block{}, false
	}

	var text string
	var conf float64
	bbox := defaultBBox()

	if points, ok := line[0].([]any); ok && looksLikePoints(points) {
		bbox = bboxFromPoints(points)
		if pair, ok := line[1].([]any); ok && len(pair) >= 2 {
			text = asString(pair[0])
			conf = asFloat(pair[1])
		} else if len(line) >= 3 {
			text = asString(line[1])
			conf = asFloat(line[2])
		} else {
			text = asString(line[1])
		}
	} else {
		// (text, conf)
		text = asString(line[0])
		conf = asFloat(line[1])
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Block{}, false
	}
	return Block{Text: text, BBox: bbox, Confidence: conf}, true
}

func looksLikePoints(points []any) bool {
	if len(points) == 0 {
		return false
	}
	_, ok := points[0].([]any)
	return ok
}

func bboxFromPoints(points []any) [4]float64 {
	first := true
	bbox := defaultBBox()
	for _, rawPt := range points {
		pt, ok := rawPt.([]any)
		if !ok || len(pt) < 2 {
			continue
		}
		x := asFloat(pt[0])
		y := asFloat(pt[1])
		if first {
			bbox = [4]float64{x, y, x, y}
			first = false
			continue
		}
		if x < bbox[0] {
			bbox[0] = x
		}
		if y < bbox[1] {
			bbox[1] = y
		}
		if x > bbox[2] {
			bbox[2] = x
		}
		if y > bbox[3] {
			bbox[3] = y
		}
	}
	return bbox
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	case string:
		if parsed, err := strconv.ParseFloat(f, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}
