package notes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is one heading-delimited slice of a notes document. Body holds the
// raw markdown between this heading and the next, heading line excluded.
type Section struct {
	Index int
	Level int
	Title string
	Body  string
}

var markdownParser = goldmark.New()

// SplitSections splits markdown into heading-delimited sections. Content
// before the first heading becomes an "Overview" section. Body text is sliced
// from the original source so nothing is lost to re-rendering.
func SplitSections(markdown string) []Section {
	source := []byte(markdown)
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	type headingMark struct {
		lineStart int
		bodyStart int
		level     int
		title     string
	}
	var headings []headingMark

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := heading.Lines().At(0)
		headings = append(headings, headingMark{
			lineStart: lineStartBefore(source, seg.Start),
			bodyStart: seg.Stop,
			level:     heading.Level,
			title:     headingTitle(heading, source),
		})
		return ast.WalkSkipChildren, nil
	})

	var sections []Section
	if len(headings) == 0 {
		body := strings.TrimSpace(markdown)
		if body == "" {
			return nil
		}
		return []Section{{Index: 0, Title: "Overview", Body: body}}
	}

	if lead := strings.TrimSpace(string(source[:headings[0].lineStart])); lead != "" {
		sections = append(sections, Section{Index: 0, Title: "Overview", Body: lead})
	}

	for i, h := range headings {
		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		sections = append(sections, Section{
			Index: len(sections),
			Level: h.level,
			Title: h.title,
			Body:  strings.TrimSpace(string(source[h.bodyStart:end])),
		})
	}
	return sections
}

// Render reassembles sections into a markdown document.
func Render(sections []Section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if s.Level > 0 {
			b.WriteString(strings.Repeat("#", s.Level))
			b.WriteString(" ")
			b.WriteString(s.Title)
			b.WriteString("\n\n")
		}
		b.WriteString(s.Body)
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// SectionChunk is a derived chunk of a notes document, ready for embedding.
type SectionChunk struct {
	ID           string
	SectionTitle string
	Text         string
}

// ChunkSections splits sections into chunks of at most maxChars characters.
// Chunk ids are content-addressed over the notes id, section title, section
// index, and character offset so re-chunking unchanged notes is idempotent.
func ChunkSections(notesID string, sections []Section, maxChars int) []SectionChunk {
	if maxChars <= 0 {
		maxChars = 1200
	}

	var chunks []SectionChunk
	for _, section := range sections {
		body := strings.TrimSpace(section.Body)
		if body == "" {
			continue
		}
		for start := 0; start < len(body); start += maxChars {
			end := start + maxChars
			if end > len(body) {
				end = len(body)
			}
			part := strings.TrimSpace(body[start:end])
			if part == "" {
				continue
			}
			identity := fmt.Sprintf("%s:%s:%d:%d", notesID, section.Title, section.Index, start)
			sum := sha256.Sum256([]byte(identity))
			chunks = append(chunks, SectionChunk{
				ID:           hex.EncodeToString(sum[:])[:20],
				SectionTitle: section.Title,
				Text:         part,
			})
		}
	}
	return chunks
}

func headingTitle(heading *ast.Heading, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	title := strings.TrimSpace(b.String())
	if title == "" {
		return "Section"
	}
	return title
}

func lineStartBefore(source []byte, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		if source[i] == '\n' {
			return i + 1
		}
	}
	return 0
}
