package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// ExpandNeighbors recovers continuation context that similarity search alone
// might rank below the cutoff: for every (asset, page) in the hit set it pulls
// chunks from pages within window of a target page, ranks them by distance to
// the nearest target page, dedupes against chunks already present, and caps
// the additions at maxExtra.
func ExpandNeighbors(ctx context.Context, chunks storage.ChunkStore, hits []Hit, window, maxExtra int) []Hit {
	if window <= 0 || maxExtra <= 0 || len(hits) == 0 {
		return hits
	}
	logger := contextutil.LoggerFromContext(ctx)

	targetPages := make(map[string]map[int]bool) // asset -> page set
	seen := make(map[string]bool)
	for _, h := range hits {
		seen[hitIdentity(h.ChunkID, h.AssetID, h.PageNum, h.StartBlock)] = true
		if h.AssetID == "" || h.PageNum == 0 || h.SourceType != "slide" {
			continue
		}
		if targetPages[h.AssetID] == nil {
			targetPages[h.AssetID] = make(map[int]bool)
		}
		targetPages[h.AssetID][h.PageNum] = true
	}

	type candidate struct {
		chunk    storage.ChunkRecord
		distance int
	}
	var candidates []candidate

	for assetID, pages := range targetPages {
		wanted := make(map[int]bool)
		for page := range pages {
			for p := page - window; p <= page+window; p++ {
				if p >= 1 {
					wanted[p] = true
				}
			}
		}
		pageList := make([]int, 0, len(wanted))
		for p := range wanted {
			pageList = append(pageList, p)
		}

		neighbors, err := chunks.ListByAssetPages(ctx, assetID, pageList)
		if err != nil {
			logger.WarnContext(ctx, "failed to load neighbor chunks", "asset_id", assetID, "error", err)
			continue
		}

		for _, chunk := range neighbors {
			identity := hitIdentity(chunk.ID, chunk.AssetID, chunk.PageNum, chunk.StartBlock)
			if seen[identity] {
				continue
			}
			best := -1
			for page := range pages {
				d := chunk.PageNum - page
				if d < 0 {
					d = -d
				}
				if best < 0 || d < best {
					best = d
				}
			}
			candidates = append(candidates, candidate{chunk: chunk, distance: best})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].chunk.PageNum != candidates[j].chunk.PageNum {
			return candidates[i].chunk.PageNum < candidates[j].chunk.PageNum
		}
		return candidates[i].chunk.StartBlock < candidates[j].chunk.StartBlock
	})

	added := 0
	for _, c := range candidates {
		if added >= maxExtra {
			break
		}
		identity := hitIdentity(c.chunk.ID, c.chunk.AssetID, c.chunk.PageNum, c.chunk.StartBlock)
		if seen[identity] {
			continue
		}
		seen[identity] = true
		hits = append(hits, Hit{
			ChunkID:    c.chunk.ID,
			SubjectID:  c.chunk.SubjectID,
			AssetID:    c.chunk.AssetID,
			PageNum:    c.chunk.PageNum,
			StartBlock: c.chunk.StartBlock,
			Text:       c.chunk.Text,
			Preview:    previewOf(c.chunk.Text),
			SourceType: "slide",
			Neighbor:   true,
		})
		added++
	}

	if added > 0 {
		logger.InfoContext(ctx, "expanded hits with neighbor chunks", "added", added, "window", window)
	}
	return hits
}

// hitIdentity dedupes by chunk id when present, falling back to a synthetic
// asset+page+start key for hits without one.
func hitIdentity(chunkID, assetID string, pageNum, startBlock int) string {
	if chunkID != "" {
		return chunkID
	}
	return fmt.Sprintf("%s:%d:%d", assetID, pageNum, startBlock)
}
