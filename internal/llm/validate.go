package llm

import (
	"fmt"
	"math"
)

// EmbeddingStats summarizes a query embedding for diagnostics.
type EmbeddingStats struct {
	Dim    int     `json:"dim"`
	Min    float32 `json:"min"`
	Max    float32 `json:"max"`
	Mean   float32 `json:"mean"`
	HasNaN bool    `json:"has_nan"`
}

// AnalyzeEmbedding computes summary statistics for a vector.
func AnalyzeEmbedding(vec []float32) EmbeddingStats {
	stats := EmbeddingStats{Dim: len(vec)}
	if len(vec) == 0 {
		return stats
	}
	stats.Min = vec[0]
	stats.Max = vec[0]
	var sum float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			stats.HasNaN = true
		}
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += f
	}
	stats.Mean = float32(sum / float64(len(vec)))
	return stats
}

// ValidateQueryEmbedding checks a query vector before it is allowed anywhere
// near similarity search. A wrong dimension or a NaN/Inf component silently
// corrupts ranking, so both fail loudly here.
func ValidateQueryEmbedding(vec []float32, expectedDim int) error {
	if len(vec) != expectedDim {
		return fmt.Errorf("query embedding has dimension %d, expected %d", len(vec), expectedDim)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("query embedding contains non-finite value at index %d", i)
		}
	}
	return nil
}
