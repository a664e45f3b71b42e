package websearch

import (
	"regexp"
	"strings"
)

// critiqueStopwords are filler terms that show up in LLM critique text and
// make poor search keywords.
var critiqueStopwords = map[string]bool{
	"weak": true, "lacking": true, "suggestions": true, "abrupt": true,
	"critique": true, "issue": true, "missing": true, "expand": true, "section": true,
}

var filenameExts = []string{".pdf", ".pptx", ".ppt", ".doc", ".docx"}

var (
	markdownChars = regexp.MustCompile("[`*_#>\\\\$]+")
	whitespace    = regexp.MustCompile(`\s+`)
)

const maxQueryWords = 12

// SanitizeText strips markdown punctuation, filename extensions, and critique
// filler from text destined for a search query.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := markdownChars.ReplaceAllString(text, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	for _, ext := range filenameExts {
		cleaned = strings.ReplaceAll(cleaned, ext, " ")
	}

	tokens := strings.Fields(cleaned)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if critiqueStopwords[strings.ToLower(t)] {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

// QueryInputs are the candidate sources for query text, in priority order:
// intents first, then the question, then the asset title and subject as
// fallbacks when nothing else survived sanitization.
type QueryInputs struct {
	Subject    string
	AssetTitle string
	Intents    []string
	Question   string
}

// BuildWebQueries produces up to maxQueries concise, deduplicated search
// queries, each clipped to a handful of words so providers treat them as
// keyword queries rather than prose.
func BuildWebQueries(in QueryInputs, maxQueries int) []string {
	if maxQueries <= 0 {
		maxQueries = 3
	}

	var candidates []string
	for _, intent := range in.Intents {
		if cleaned := SanitizeText(intent); cleaned != "" {
			candidates = append(candidates, cleaned)
		}
	}
	if in.Question != "" {
		if cleaned := SanitizeText(in.Question); cleaned != "" {
			candidates = append(candidates, cleaned)
		}
	}
	if len(candidates) == 0 && in.AssetTitle != "" {
		candidates = append(candidates, SanitizeText(in.AssetTitle))
	}
	if len(candidates) == 0 && in.Subject != "" {
		candidates = append(candidates, SanitizeText(in.Subject))
	}

	seen := make(map[string]bool)
	var queries []string
	for _, c := range candidates {
		q := clipWords(c, maxQueryWords)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) >= maxQueries {
			break
		}
	}
	return queries
}

func clipWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
