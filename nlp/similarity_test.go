package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	strategy := CosineSimilarity{}
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},
		{0, 1},
		{-1, 0},
		{2, 0},
	}

	scores := strategy.Scores(query, candidates)
	require.Len(t, scores, 4)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.InDelta(t, 0.0, scores[1], 1e-9)
	assert.InDelta(t, -1.0, scores[2], 1e-9)
	assert.InDelta(t, 1.0, scores[3], 1e-9)
}

func TestCosineSimilarity_ZeroVectors(t *testing.T) {
	strategy := CosineSimilarity{}

	scores := strategy.Scores([]float32{0, 0}, [][]float32{{1, 1}})
	assert.Equal(t, []float64{0}, scores)

	scores = strategy.Scores([]float32{1, 1}, [][]float32{{0, 0}})
	assert.Equal(t, []float64{0}, scores)
}

func TestDotProductSimilarity(t *testing.T) {
	strategy := DotProductSimilarity{}

	scores := strategy.Scores([]float32{1, 2}, [][]float32{{3, 4}, {0, 0}})
	require.Len(t, scores, 2)
	assert.InDelta(t, 11.0, scores[0], 1e-9)
	assert.InDelta(t, 0.0, scores[1], 1e-9)
}

func TestNewSimilarityStrategy(t *testing.T) {
	strategy, err := NewSimilarityStrategy("")
	require.NoError(t, err)
	assert.IsType(t, CosineSimilarity{}, strategy)

	strategy, err = NewSimilarityStrategy("cosine")
	require.NoError(t, err)
	assert.IsType(t, CosineSimilarity{}, strategy)

	strategy, err = NewSimilarityStrategy("dot")
	require.NoError(t, err)
	assert.IsType(t, DotProductSimilarity{}, strategy)

	_, err = NewSimilarityStrategy("euclidean")
	assert.Error(t, err)
}
