package notes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	llm_mocks "github.com/Jitarth1102/rag-study-assistant/internal/llm/mocks"
	"github.com/Jitarth1102/rag-study-assistant/internal/websearch"
	websearch_mocks "github.com/Jitarth1102/rag-study-assistant/internal/websearch/mocks"
)

func newQualityFixture(t *testing.T, cfg QualityConfig) (*QualityLoop, *llm_mocks.MockGenerator, *websearch_mocks.MockSearcher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	gen := llm_mocks.NewMockGenerator(ctrl)
	searcher := websearch_mocks.NewMockSearcher(ctrl)
	return NewQualityLoop(gen, searcher, cfg), gen, searcher
}

func TestQualityLoopCleanDraftPassesUntouched(t *testing.T) {
	loop, gen, _ := newQualityFixture(t, QualityConfig{})

	// Both critique rounds find nothing; no revision happens.
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return("No major issues.", nil).
		Times(2)

	draft := "# Entropy\n\nSolid notes."
	got, meta, err := loop.Run(context.Background(), draft, "", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != draft {
		t.Errorf("draft changed: %q", got)
	}
	if meta.RevisionRounds != 0 || meta.UsedWeb {
		t.Errorf("meta = %+v, want zero revisions and no web", meta)
	}
}

func TestQualityLoopRevisesOnCritique(t *testing.T) {
	loop, gen, _ := newQualityFixture(t, QualityConfig{})

	const revised = "# Entropy\n\nRevised with examples."
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "You are judging") && strings.Contains(prompt, revised):
				return "No major issues.", nil
			case strings.Contains(prompt, "You are judging"):
				return "- Missing worked examples of the entropy formula", nil
			case strings.Contains(prompt, "You are reviewing"):
				if !strings.Contains(prompt, "Missing worked examples") {
					t.Error("revision prompt missing the critique")
				}
				return revised, nil
			default:
				t.Errorf("unexpected prompt: %q", prompt)
				return "", nil
			}
		}).
		Times(3)

	got, meta, err := loop.Run(context.Background(), "# Entropy\n\nThin notes.", "", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != revised {
		t.Errorf("got %q, want the revised draft", got)
	}
	if meta.RevisionRounds != 1 {
		t.Errorf("RevisionRounds = %d, want 1", meta.RevisionRounds)
	}
}

func TestQualityLoopCritiqueFailureKeepsDraft(t *testing.T) {
	loop, gen, _ := newQualityFixture(t, QualityConfig{})

	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return("", errors.New("model unavailable"))

	draft := "# Entropy\n\nNotes."
	got, meta, err := loop.Run(context.Background(), draft, "", "")
	if err != nil {
		t.Fatalf("critique failure should degrade, got error: %v", err)
	}
	if got != draft || meta.RevisionRounds != 0 {
		t.Errorf("got %q meta %+v, want untouched draft", got, meta)
	}
}

func TestQualityLoopRescueSearchOnSecondRound(t *testing.T) {
	loop, gen, searcher := newQualityFixture(t, QualityConfig{WebEnabled: true})

	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), 0).
		Return([]websearch.Result{
			{Title: "Entropy derivation", URL: "https://example.org/entropy", Snippet: "Step by step."},
		}, nil)

	calls := 0
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			calls++
			switch calls {
			case 1: // round 1 critique: clean
				return "No major issues.", nil
			case 2: // round 2 critique: flags a gap
				return "- Missing derivation of the entropy formula", nil
			case 3: // final revision with rescue snippets
				if !strings.Contains(prompt, "External references (web)") {
					t.Error("revision prompt missing the web context")
				}
				if !strings.Contains(prompt, "https://example.org/entropy") {
					t.Error("revision prompt missing the rescue result URL")
				}
				return "# Entropy\n\nNow with the derivation.", nil
			default:
				t.Errorf("unexpected generate call %d: %q", calls, prompt)
				return "", nil
			}
		}).
		Times(3)

	// Empty slide context keeps section augmentation out of the way.
	got, meta, err := loop.Run(context.Background(), "# Entropy\n\nThin notes.", "", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(got, "derivation") {
		t.Errorf("got %q, want the revised draft", got)
	}
	if !meta.UsedWeb || meta.WebQueries != 1 || meta.WebResults != 1 {
		t.Errorf("meta = %+v, want one rescue query and result", meta)
	}
	if meta.RevisionRounds != 1 {
		t.Errorf("RevisionRounds = %d, want 1", meta.RevisionRounds)
	}
}

func TestQualityLoopAugmentsGappedSections(t *testing.T) {
	loop, gen, searcher := newQualityFixture(t, QualityConfig{
		WebEnabled:          true,
		GapOverlapThreshold: 0.5,
		AnchorMatchCount:    2,
		MaxSectionQueries:   2,
	})

	const rewritten = "Expanded body covering entropy gibbs energy derivation. [web:https://example.org/gibbs]"

	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), 0).
		Return([]websearch.Result{
			{Title: "Entropy derivation", URL: "https://example.org/gibbs", Snippet: "gibbs free energy enthalpy definition"},
		}, nil)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), 0).
		Return(nil, nil)

	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Rewrite this study-notes section"):
				if !strings.Contains(prompt, "https://example.org/gibbs") {
					t.Error("rewrite prompt missing the web snippet")
				}
				return rewritten, nil
			case strings.Contains(prompt, "You are judging"):
				return "No major issues.", nil
			default:
				t.Errorf("unexpected prompt: %q", prompt)
				return "", nil
			}
		}).
		Times(3)

	draft := "# Entropy\n\nshort note"
	slideContext := "entropy enthalpy gibbs free energy derivation"

	got, meta, err := loop.Run(context.Background(), draft, slideContext, "Thermodynamics")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(got, "Expanded body covering entropy") {
		t.Errorf("rewritten section not woven back in: %q", got)
	}
	if !meta.UsedWeb {
		t.Error("UsedWeb = false, want true")
	}
	if urls := meta.SectionCitations["Entropy"]; len(urls) != 1 || urls[0] != "https://example.org/gibbs" {
		t.Errorf("section citations = %v", meta.SectionCitations)
	}
	if meta.WebQueries != 2 {
		t.Errorf("WebQueries = %d, want 2", meta.WebQueries)
	}
}

func TestQualityLoopExpandsShortNotes(t *testing.T) {
	loop, gen, _ := newQualityFixture(t, QualityConfig{MinChars: 500})

	const expanded = "# Entropy\n\nMuch longer notes with examples and exam tips."
	calls := 0
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			calls++
			if calls <= 2 {
				return "No major issues.", nil
			}
			if !strings.Contains(prompt, "shorter than desired") {
				t.Error("expansion prompt missing the length instruction")
			}
			return expanded, nil
		}).
		Times(3)

	got, meta, err := loop.Run(context.Background(), "# Entropy\n\nTiny.", "", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != expanded {
		t.Errorf("got %q, want the expanded draft", got)
	}
	if !meta.ExpandedForLen {
		t.Error("ExpandedForLen = false, want true")
	}
}
