package websearch

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"strips markdown", "## **Bold** `code` $math$", "Bold code math"},
		{"strips filename extensions", "lecture04.pdf overview", "lecture04 overview"},
		{"drops critique filler", "weak section on entropy, missing examples", "on entropy, examples"},
		{"collapses whitespace", "a    b\t\nc", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildWebQueries(t *testing.T) {
	t.Run("intents first, deduplicated, capped", func(t *testing.T) {
		got := BuildWebQueries(QueryInputs{
			Intents:  []string{"bayes theorem prior", "bayes theorem prior", "markov chains"},
			Question: "what is a markov chain",
		}, 2)
		want := []string{"bayes theorem prior", "markov chains"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("falls back to asset title then subject", func(t *testing.T) {
		got := BuildWebQueries(QueryInputs{AssetTitle: "Linear Algebra Week 3"}, 3)
		if len(got) != 1 || got[0] != "Linear Algebra Week 3" {
			t.Errorf("got %v", got)
		}

		got = BuildWebQueries(QueryInputs{Subject: "Thermodynamics"}, 3)
		if len(got) != 1 || got[0] != "Thermodynamics" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("clips long queries to twelve words", func(t *testing.T) {
		long := strings.Repeat("word ", 30)
		got := BuildWebQueries(QueryInputs{Question: long}, 1)
		if len(got) != 1 {
			t.Fatalf("got %d queries, want 1", len(got))
		}
		if n := len(strings.Fields(got[0])); n != 12 {
			t.Errorf("query has %d words, want 12", n)
		}
	})

	t.Run("nothing usable yields no queries", func(t *testing.T) {
		if got := BuildWebQueries(QueryInputs{}, 3); len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})
}

func TestFilterDomains(t *testing.T) {
	results := []Result{
		{URL: "https://en.wikipedia.org/wiki/Entropy"},
		{URL: "https://spam.example.com/entropy"},
		{URL: "https://sub.en.wikipedia.org/page"},
		{URL: "not a url"},
	}

	t.Run("allow list keeps matching hosts and suffixes", func(t *testing.T) {
		c := NewClient(ClientConfig{AllowedDomains: []string{"en.wikipedia.org"}})
		got := c.filterDomains(results)
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
	})

	t.Run("block list removes matches", func(t *testing.T) {
		c := NewClient(ClientConfig{BlockedDomains: []string{"example.com"}})
		got := c.filterDomains(results)
		for _, r := range got {
			if strings.Contains(r.URL, "example.com") {
				t.Errorf("blocked domain survived: %s", r.URL)
			}
		}
	})

	t.Run("no lists passes everything parseable", func(t *testing.T) {
		c := NewClient(ClientConfig{})
		if got := c.filterDomains(results); len(got) != len(results) {
			t.Errorf("got %d results, want %d", len(got), len(results))
		}
	})
}
