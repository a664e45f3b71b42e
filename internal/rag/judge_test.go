package rag

import "testing"

func TestShouldSearchWeb(t *testing.T) {
	policy := JudgePolicy{
		WebEnabled:     true,
		MinHitsToSkip:  3,
		MinScoreToSkip: 0.65,
	}

	tests := []struct {
		name       string
		question   string
		hitCount   int
		topScore   float64
		force      bool
		policy     JudgePolicy
		wantSearch bool
		wantReason string
	}{
		{
			name:       "web disabled wins over everything",
			question:   "what is entropy",
			hitCount:   0,
			force:      true,
			policy:     JudgePolicy{WebEnabled: false},
			wantSearch: false,
			wantReason: ReasonWebDisabled,
		},
		{
			name:       "confident by hit count",
			question:   "what is entropy",
			hitCount:   3,
			topScore:   0.1,
			policy:     policy,
			wantSearch: false,
			wantReason: ReasonRAGConfident,
		},
		{
			name:       "confident by top score",
			question:   "what is entropy",
			hitCount:   1,
			topScore:   0.9,
			policy:     policy,
			wantSearch: false,
			wantReason: ReasonRAGConfident,
		},
		{
			name:       "force overrides confidence",
			question:   "anything",
			hitCount:   10,
			topScore:   0.99,
			force:      true,
			policy:     policy,
			wantSearch: true,
			wantReason: ReasonForcedByUser,
		},
		{
			name:       "definition question with weak context",
			question:   "Explain the chain rule",
			hitCount:   1,
			topScore:   0.3,
			policy:     policy,
			wantSearch: true,
			wantReason: ReasonDefinitionWithWeakRAG,
		},
		{
			name:       "no hits at all",
			question:   "chapter summary",
			hitCount:   0,
			topScore:   0,
			policy:     policy,
			wantSearch: true,
			wantReason: ReasonNoHits,
		},
		{
			name:       "weak but non-definitional stays local",
			question:   "chapter summary",
			hitCount:   1,
			topScore:   0.3,
			policy:     policy,
			wantSearch: false,
			wantReason: ReasonDefaultNoSearch,
		},
		{
			name:       "zero thresholds disable the confidence gate",
			question:   "chapter summary",
			hitCount:   100,
			topScore:   1.0,
			policy:     JudgePolicy{WebEnabled: true},
			wantSearch: false,
			wantReason: ReasonDefaultNoSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldSearchWeb(tt.question, tt.hitCount, tt.topScore, tt.force, tt.policy)
			if got.DoSearch != tt.wantSearch {
				t.Errorf("DoSearch = %v, want %v", got.DoSearch, tt.wantSearch)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.DoSearch && len(got.SuggestedQueries) == 0 {
				t.Error("expected suggested queries when searching")
			}
		})
	}
}

func TestLooksLikeDefinition(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"What is a monad?", true},
		{"Please DESCRIBE the algorithm", true},
		{"derivation of the normal equations", true},
		{"summarize slide 4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeDefinition(tt.question); got != tt.want {
			t.Errorf("looksLikeDefinition(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}
