package notes

import (
	"sort"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/textutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
)

// domainAnchors is a small fixed vocabulary of study-material terms mixed into
// anchor sets so web queries and result filtering stay on academic topics
// instead of drifting to generic results.
var domainAnchors = []string{
	"definition", "theorem", "proof", "derivation", "formula", "equation",
	"algorithm", "example", "method", "concept",
}

const (
	sectionKeywordCount = 12
	sourceKeywordCount  = 30
	maxMissingTerms     = 6
)

// Gap flags a section whose topical coverage falls short of the source
// material.
type Gap struct {
	SectionIndex int      `json:"section_index"`
	SectionTitle string   `json:"section_title"`
	Overlap      float64  `json:"overlap"`
	MissingTerms []string `json:"missing_terms"`
}

// DetectGaps compares each section's keyword set against the source context's
// keyword set. A section gaps when its overlap ratio falls below threshold
// AND the source has terms the section never mentions. Results come back in
// priority order, lowest overlap first. This is a cheap proxy for "this
// section doesn't cover what the source material covers".
func DetectGaps(sections []Section, sourceContext string, threshold float64) []Gap {
	sourceTerms := textutil.Keywords(sourceContext, sourceKeywordCount)
	if len(sourceTerms) == 0 {
		return nil
	}

	var gaps []Gap
	for _, section := range sections {
		sectionText := section.Title + "\n" + section.Body
		sectionTerms := textutil.Keywords(sectionText, sectionKeywordCount)

		overlap := textutil.OverlapRatio(sectionTerms, sourceTerms)
		if overlap >= threshold {
			continue
		}

		missing := missingTerms(sectionText, sourceTerms)
		if len(missing) == 0 {
			continue
		}

		gaps = append(gaps, Gap{
			SectionIndex: section.Index,
			SectionTitle: section.Title,
			Overlap:      overlap,
			MissingTerms: missing,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Overlap < gaps[j].Overlap
	})
	return gaps
}

// missingTerms returns source terms absent from the section text, capped.
func missingTerms(sectionText string, sourceTerms []string) []string {
	present := make(map[string]struct{})
	for _, t := range textutil.Tokenize(sectionText) {
		present[t] = struct{}{}
	}

	var missing []string
	for _, term := range sourceTerms {
		if _, ok := present[term]; ok {
			continue
		}
		missing = append(missing, term)
		if len(missing) >= maxMissingTerms {
			break
		}
	}
	return missing
}

// AnchorTerms builds the anchor vocabulary for a gapped section: its own
// keywords, its missing source terms, and the fixed domain anchors.
func AnchorTerms(section Section, gap Gap) []string {
	seen := make(map[string]struct{})
	var anchors []string
	add := func(terms []string) {
		for _, t := range terms {
			t = strings.ToLower(t)
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			anchors = append(anchors, t)
		}
	}
	add(textutil.Keywords(section.Title+"\n"+section.Body, sectionKeywordCount))
	add(gap.MissingTerms)
	add(domainAnchors)
	return anchors
}

// MatchesAnchors reports whether at least minMatches anchor terms occur in
// the text. Used both to filter search results and to re-check a rewritten
// section for topic drift.
func MatchesAnchors(text string, anchors []string, minMatches int) bool {
	if minMatches <= 0 {
		return true
	}
	present := make(map[string]struct{})
	for _, t := range textutil.Tokenize(text) {
		present[t] = struct{}{}
	}

	matches := 0
	for _, anchor := range anchors {
		if _, ok := present[anchor]; ok {
			matches++
			if matches >= minMatches {
				return true
			}
		}
	}
	return false
}

// FilterResultsByAnchors keeps only results whose title+snippet contains at
// least minMatches anchor terms. This rejects plausible-looking but off-topic
// web results, the classic failure mode of naive web augmentation.
func FilterResultsByAnchors(results []websearch.Result, anchors []string, minMatches int) []websearch.Result {
	kept := make([]websearch.Result, 0, len(results))
	for _, r := range results {
		if MatchesAnchors(r.Title+" "+r.Snippet, anchors, minMatches) {
			kept = append(kept, r)
		}
	}
	return kept
}
