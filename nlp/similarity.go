package nlp

import (
	"fmt"
	"math"
)

// SimilarityStrategy scores a query vector against a set of candidate
// vectors. Implementations must be deterministic and safe for concurrent
// use.
type SimilarityStrategy interface {
	Scores(query []float32, candidates [][]float32) []float64
}

// CosineSimilarity scores by the cosine of the angle between vectors. A zero
// query or candidate vector scores 0.
type CosineSimilarity struct{}

// Scores implements SimilarityStrategy.
func (CosineSimilarity) Scores(query []float32, candidates [][]float32) []float64 {
	scores := make([]float64, len(candidates))
	queryNorm := vectorNorm(query)
	if queryNorm == 0 {
		return scores
	}
	for i, candidate := range candidates {
		candidateNorm := vectorNorm(candidate)
		if candidateNorm == 0 {
			continue
		}
		scores[i] = dotProduct(query, candidate) / (queryNorm * candidateNorm)
	}
	return scores
}

// DotProductSimilarity scores by the raw dot product. Useful when the
// embedding provider already returns unit-normalized vectors.
type DotProductSimilarity struct{}

// Scores implements SimilarityStrategy.
func (DotProductSimilarity) Scores(query []float32, candidates [][]float32) []float64 {
	scores := make([]float64, len(candidates))
	for i, candidate := range candidates {
		scores[i] = dotProduct(query, candidate)
	}
	return scores
}

// NewSimilarityStrategy resolves a strategy by name. The empty name selects
// cosine similarity.
func NewSimilarityStrategy(name string) (SimilarityStrategy, error) {
	switch name {
	case "", "cosine":
		return CosineSimilarity{}, nil
	case "dot":
		return DotProductSimilarity{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity strategy: %s", name)
	}
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
