package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Jitarth1102/rag-study-assistant/internal/ocr"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// ChunkParams controls chunk sizing and overlap.
type ChunkParams struct {
	MaxChars      int
	MinChars      int
	OverlapBlocks int
}

// ChunkID derives the content-addressed chunk id. Identical inputs always
// produce the identical id, which is what makes re-chunking idempotent.
func ChunkID(assetID string, pageNum, startBlock, endBlock int) string {
	identity := fmt.Sprintf("%s:%d:%d:%d", assetID, pageNum, startBlock, endBlock)
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])[:20]
}

// ChunkPage converts one page's normalized OCR blocks into ordered chunks.
// Blocks are first sorted into reading order (top-to-bottom, then
// left-to-right), then greedily accumulated until MaxChars is reached.
// MinChars takes priority once MaxChars is first crossed so a trailing chunk
// is never degenerately tiny. Start/end block indices refer to the
// reading-ordered block list.
func ChunkPage(subjectID, assetID string, pageNum int, res ocr.Result, params ChunkParams) []storage.ChunkRecord {
	blocks := readingOrder(res.Blocks)
	if len(blocks) == 0 {
		return nil
	}

	var chunks []storage.ChunkRecord
	start := 0
	for start < len(blocks) {
		var size int
		end := start
		for i := start; i < len(blocks); i++ {
			size += len(blocks[i].Text)
			end = i
			if size >= params.MaxChars && size >= params.MinChars {
				break
			}
		}

		text := joinBlocks(blocks[start : end+1])
		bbox := unionBBox(blocks[start : end+1])
		bboxJSON, _ := json.Marshal(bbox)

		chunks = append(chunks, storage.ChunkRecord{
			ID:         ChunkID(assetID, pageNum, start, end),
			SubjectID:  subjectID,
			AssetID:    assetID,
			PageNum:    pageNum,
			Text:       text,
			BBoxJSON:   string(bboxJSON),
			StartBlock: start,
			EndBlock:   end,
		})

		if end == len(blocks)-1 {
			break
		}
		if params.OverlapBlocks > 0 {
			next := end - params.OverlapBlocks + 1
			if next <= start {
				next = start + 1
			}
			start = next
		} else {
			start = end + 1
		}
	}
	return chunks
}

// readingOrder sorts blocks top-to-bottom, breaking ties left-to-right, and
// drops empty ones. The input slice is not modified.
func readingOrder(blocks []ocr.Block) []ocr.Block {
	ordered := make([]ocr.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BBox[1] != ordered[j].BBox[1] {
			return ordered[i].BBox[1] < ordered[j].BBox[1]
		}
		return ordered[i].BBox[0] < ordered[j].BBox[0]
	})
	return ordered
}

func joinBlocks(blocks []ocr.Block) string {
	var out string
	for i, b := range blocks {
		if i > 0 {
			out += "\n"
		}
		out += b.Text
	}
	return out
}

func unionBBox(blocks []ocr.Block) [4]float64 {
	bbox := blocks[0].BBox
	for _, b := range blocks[1:] {
		if b.BBox[0] < bbox[0] {
			bbox[0] = b.BBox[0]
		}
		if b.BBox[1] < bbox[1] {
			bbox[1] = b.BBox[1]
		}
		if b.BBox[2] > bbox[2] {
			bbox[2] = b.BBox[2]
		}
		if b.BBox[3] > bbox[3] {
			bbox[3] = b.BBox[3]
		}
	}
	return bbox
}
