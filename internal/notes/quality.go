package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/llm"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
)

// noMajorIssues is the literal verdict that ends a critique round early.
const noMajorIssues = "no major issues"

const webSnippetBudget = 1200

// QualityConfig tunes the critique/augmentation loop.
type QualityConfig struct {
	// GapOverlapThreshold: sections with keyword overlap below this are
	// candidates for web augmentation.
	GapOverlapThreshold float64
	// AnchorMatchCount: minimum anchor terms a web result (or rewritten
	// section) must contain to be accepted.
	AnchorMatchCount int
	// MaxSectionQueries bounds web queries spent on section patching per note.
	MaxSectionQueries int
	// MinChars triggers a final expansion pass when the finished notes are
	// still shorter than this. Zero disables it.
	MinChars int
	// WebEnabled gates all web usage in the loop.
	WebEnabled bool
}

// QualityMeta is the telemetry the loop hands back for meta_json.
type QualityMeta struct {
	UsedWeb          bool                `json:"used_web"`
	WebQueries       int                 `json:"web_queries"`
	WebResults       int                 `json:"web_results"`
	SectionQueries   map[string][]string `json:"section_queries,omitempty"`
	SectionCitations map[string][]string `json:"section_citations,omitempty"`
	RevisionRounds   int                 `json:"revision_rounds"`
	ExpandedForLen   bool                `json:"expanded_for_length,omitempty"`
}

// QualityLoop critiques and revises draft notes over two bounded rounds,
// patching topically gapped sections with anchor-filtered web snippets first.
// Two rounds is a deliberate cap: the loop is two chances at convergence, not
// a fixed-point iteration.
type QualityLoop struct {
	generator llm.Generator
	searcher  websearch.Searcher
	cfg       QualityConfig
}

// NewQualityLoop creates the notes quality loop.
func NewQualityLoop(generator llm.Generator, searcher websearch.Searcher, cfg QualityConfig) *QualityLoop {
	return &QualityLoop{generator: generator, searcher: searcher, cfg: cfg}
}

// Run takes a draft and returns the improved markdown plus telemetry.
// slideContext is the source material the draft was generated from;
// subjectHint seasons web queries. Errors from web search or individual LLM
// calls degrade the loop rather than abort it; only a failed revision of the
// whole document surfaces as an error.
func (q *QualityLoop) Run(ctx context.Context, draft, slideContext, subjectHint string) (string, QualityMeta, error) {
	logger := contextutil.LoggerFromContext(ctx)
	meta := QualityMeta{
		SectionQueries:   map[string][]string{},
		SectionCitations: map[string][]string{},
	}

	current := draft
	if q.cfg.WebEnabled {
		current = q.augmentSections(ctx, current, slideContext, subjectHint, &meta)
	}

	// Round 1 always critiques the current draft.
	needsRevision, critique, err := q.judge(ctx, current, 1)
	if err != nil {
		logger.WarnContext(ctx, "notes critique failed, keeping draft", "round", 1, "error", err)
		return current, meta, nil
	}
	if needsRevision {
		revised, err := q.revise(ctx, current, critique, "", false)
		if err != nil {
			return "", meta, fmt.Errorf("revision round 1 failed: %w", err)
		}
		current = revised
		meta.RevisionRounds++
	}

	// Round 2: if still flagged and the web has not been consulted yet, a
	// best-effort rescue search feeds the final revision.
	needsRevision, critique, err = q.judge(ctx, current, 2)
	if err != nil {
		logger.WarnContext(ctx, "notes critique failed, keeping draft", "round", 2, "error", err)
		needsRevision = false
	}
	if needsRevision {
		webContext := ""
		if q.cfg.WebEnabled && !meta.UsedWeb {
			webContext = q.rescueSearch(ctx, critique, subjectHint, &meta)
		}
		revised, err := q.revise(ctx, current, critique, webContext, false)
		if err != nil {
			return "", meta, fmt.Errorf("revision round 2 failed: %w", err)
		}
		current = revised
		meta.RevisionRounds++
	}

	if q.cfg.MinChars > 0 && len(current) < q.cfg.MinChars {
		logger.InfoContext(ctx, "notes below minimum length, expanding", "have", len(current), "want", q.cfg.MinChars)
		expanded, err := q.revise(ctx, current, "", "", true)
		if err == nil {
			current = expanded
			meta.ExpandedForLen = true
		} else {
			logger.WarnContext(ctx, "length expansion failed, keeping notes", "error", err)
		}
	}

	return current, meta, nil
}

// judge asks the LLM to critique the draft. The draft passes when the
// critique literally contains "no major issues".
func (q *QualityLoop) judge(ctx context.Context, draft string, round int) (bool, string, error) {
	prompt := fmt.Sprintf(`You are judging draft study notes for quality, completeness, and structure.

Draft notes:
%s

Instructions:
- List key missing points or weak spots in bullet form.
- If the draft is already clear and complete, say "No major issues".
- Keep feedback concise.`, draft)

	critique, err := q.generator.Generate(ctx, prompt)
	if err != nil {
		return false, "", err
	}
	needsRevision := !strings.Contains(strings.ToLower(critique), noMajorIssues)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "notes critique round complete",
		"round", round, "needs_revision", needsRevision)
	return needsRevision, critique, nil
}

func (q *QualityLoop) revise(ctx context.Context, draft, critique, webContext string, expandForLength bool) (string, error) {
	var b strings.Builder
	b.WriteString(`You are reviewing draft study notes. Improve clarity, structure, and completeness.

Draft notes:
`)
	b.WriteString(draft)
	if expandForLength {
		b.WriteString("\n\nThe notes are shorter than desired. Expand missing sections with examples, clarifications, exam tips; avoid fluff.")
	}
	if critique != "" {
		b.WriteString("\n\nCritique:\n")
		b.WriteString(critique)
	}
	if webContext != "" {
		b.WriteString("\n\nExternal references (web):\n")
		b.WriteString(webContext)
		b.WriteString("\nIntegrate them only where relevant, citing inline as [web:url].")
	}
	b.WriteString(`

Instructions:
- Keep Markdown headings/bullets concise.
- Add missing key points if needed, based on the draft context (do not invent new topics).
- Ensure sections are organized and readable.
- Fix formatting issues; keep formulas in LaTeX math delimiters and code fenced.
Return the revised Markdown only.`)

	return q.generator.Generate(ctx, b.String())
}

// augmentSections finds topically gapped sections and patches the worst ones
// with anchor-filtered web snippets, bounded by the per-note query budget.
func (q *QualityLoop) augmentSections(ctx context.Context, markdown, slideContext, subjectHint string, meta *QualityMeta) string {
	logger := contextutil.LoggerFromContext(ctx)

	sections := SplitSections(markdown)
	gaps := DetectGaps(sections, slideContext, q.cfg.GapOverlapThreshold)
	if len(gaps) == 0 {
		return markdown
	}
	logger.InfoContext(ctx, "detected section gaps", "count", len(gaps))

	budget := q.cfg.MaxSectionQueries
	changed := false
	for _, gap := range gaps {
		if budget <= 0 {
			break
		}
		if gap.SectionIndex < 0 || gap.SectionIndex >= len(sections) {
			continue
		}
		section := sections[gap.SectionIndex]
		anchors := AnchorTerms(section, gap)

		queries := websearch.BuildWebQueries(websearch.QueryInputs{
			Subject:    subjectHint,
			AssetTitle: gap.SectionTitle,
			Intents:    []string{gap.SectionTitle + " " + strings.Join(gap.MissingTerms, " ")},
		}, 2)

		var results []websearch.Result
		for _, query := range queries {
			if budget <= 0 {
				break
			}
			budget--
			meta.WebQueries++
			meta.SectionQueries[gap.SectionTitle] = append(meta.SectionQueries[gap.SectionTitle], query)

			found, err := q.searcher.Search(ctx, query, 0)
			if err != nil {
				logger.WarnContext(ctx, "section web search failed", "section", gap.SectionTitle, "error", err)
				continue
			}
			results = append(results, found...)
		}

		kept := FilterResultsByAnchors(dedupeByURL(results), anchors, q.cfg.AnchorMatchCount)
		if len(kept) == 0 {
			continue
		}
		meta.WebResults += len(kept)

		rewritten, ok := q.rewriteSection(ctx, section, gap, kept, anchors)
		if !ok {
			continue
		}
		sections[gap.SectionIndex].Body = rewritten
		for _, r := range kept {
			meta.SectionCitations[gap.SectionTitle] = append(meta.SectionCitations[gap.SectionTitle], r.URL)
		}
		meta.UsedWeb = true
		changed = true
	}

	if !changed {
		return markdown
	}
	return Render(sections)
}

// rewriteSection asks the LLM to weave web snippets into the section. The
// rewrite is re-checked against the same anchors so a drifting rewrite is
// rejected even when its inputs were on-topic.
func (q *QualityLoop) rewriteSection(ctx context.Context, section Section, gap Gap, results []websearch.Result, anchors []string) (string, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	var snippets strings.Builder
	for i, r := range results {
		entry := fmt.Sprintf("[web:%s] %s: %s\n", r.URL, r.Title, r.Snippet)
		if snippets.Len()+len(entry) > webSnippetBudget {
			break
		}
		snippets.WriteString(entry)
		_ = i
	}

	prompt := fmt.Sprintf(`Rewrite this study-notes section to cover its missing topics using the web snippets below. Preserve the original structure and everything already correct; extend rather than replace. Append footnote-style citations as [web:url] where a snippet contributed.

Section "%s":
%s

Missing topics: %s

Web snippets:
%s

Return only the rewritten section body in Markdown, without the heading line.`,
		section.Title, section.Body, strings.Join(gap.MissingTerms, ", "), snippets.String())

	rewritten, err := q.generator.Generate(ctx, prompt)
	if err != nil {
		logger.WarnContext(ctx, "section rewrite failed", "section", section.Title, "error", err)
		return "", false
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return "", false
	}

	if !MatchesAnchors(rewritten, anchors, q.cfg.AnchorMatchCount) {
		logger.WarnContext(ctx, "rewritten section drifted off anchors, keeping original", "section", section.Title)
		return "", false
	}
	return rewritten, true
}

// rescueSearch derives generic queries from the critique text for the final
// revision when nothing web-sourced has been used yet.
func (q *QualityLoop) rescueSearch(ctx context.Context, critique, subjectHint string, meta *QualityMeta) string {
	logger := contextutil.LoggerFromContext(ctx)

	queries := websearch.BuildWebQueries(websearch.QueryInputs{
		Subject: subjectHint,
		Intents: critiqueLines(critique),
	}, 2)
	if len(queries) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var b strings.Builder
	for _, query := range queries {
		meta.WebQueries++
		found, err := q.searcher.Search(ctx, query, 0)
		if err != nil {
			logger.WarnContext(ctx, "rescue web search failed", "query", query, "error", err)
			continue
		}
		for _, r := range found {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			entry := fmt.Sprintf("[web:%s] %s: %s\n", r.URL, r.Title, r.Snippet)
			if b.Len()+len(entry) > webSnippetBudget {
				break
			}
			b.WriteString(entry)
			meta.WebResults++
		}
	}
	if b.Len() > 0 {
		meta.UsedWeb = true
	}
	return b.String()
}

func critiqueLines(critique string) []string {
	var lines []string
	for _, line := range strings.Split(critique, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• "))
		if len(line) > 10 {
			lines = append(lines, line)
		}
		if len(lines) >= 3 {
			break
		}
	}
	return lines
}

func dedupeByURL(results []websearch.Result) []websearch.Result {
	seen := make(map[string]bool)
	deduped := make([]websearch.Result, 0, len(results))
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		deduped = append(deduped, r)
	}
	return deduped
}
