package textutil

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation only", "!!! ---", nil},
		{"lowercases and splits", "Bayes' Theorem: P(A|B)", []string{"bayes", "theorem", "p", "a", "b"}},
		{"digits survive", "chapter 12 section 3", []string{"chapter", "12", "section", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	text := "entropy entropy entropy gradient gradient the the the a is"

	got := Keywords(text, 2)
	want := []string{"entropy", "gradient"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}

	// Ties break alphabetically so repeated runs agree.
	got = Keywords("beta alpha beta alpha", 2)
	want = []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords tie-break = %v, want %v", got, want)
	}

	if got := Keywords("", 5); got != nil {
		t.Errorf("Keywords on empty text = %v, want nil", got)
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"half", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"empty side", nil, []string{"y"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverlapRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("OverlapRatio = %v, want %v", got, tt.want)
			}
		})
	}
}
