package service

import (
	"context"
	"errors"
	"testing"

	"rubricscore-backend/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubParser returns fixed sentences and entities regardless of input.
type stubParser struct {
	sentences []string
	entities  []nlp.Entity
	err       error
}

func (p *stubParser) Parse(ctx context.Context, text string) (*nlp.ParsedDocument, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &nlp.ParsedDocument{Text: text, Sentences: p.sentences, Entities: p.entities}, nil
}

// stubEmbedder maps exact (already normalized) text to a fixed vector.
// Unknown text embeds to the zero vector.
type stubEmbedder struct {
	vectors   map[string][]float32
	dimension int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := e.vectors[text]; ok {
		return vector, nil
	}
	return make([]float32, e.dimension), nil
}

func (e *stubEmbedder) Dimension() int {
	return e.dimension
}

// stubNLI answers by hypothesis. A hypothesis listed in failures returns an
// error instead.
type stubNLI struct {
	verdicts map[string]*nlp.NLIResult
	failures map[string]error
}

func (n *stubNLI) Classify(ctx context.Context, premise, hypothesis string) (*nlp.NLIResult, error) {
	if err, ok := n.failures[hypothesis]; ok {
		return nil, err
	}
	if verdict, ok := n.verdicts[hypothesis]; ok {
		return verdict, nil
	}
	return &nlp.NLIResult{Label: nlp.LabelNeutral, Confidence: 0.5}, nil
}

// wellDocument is a two-sentence fixture. Vector keys match the normalized
// forms the evaluator feeds the embedder.
func wellDocument() (*stubParser, *stubEmbedder) {
	parser := &stubParser{
		sentences: []string{"The well was dry.", "No water was found."},
	}
	embedder := &stubEmbedder{
		dimension: 2,
		vectors: map[string][]float32{
			"The well was dry":   {1, 0},
			"No water was found": {0, 1},
			"was the well dry":   {1, 0},
			"was water found":    {0, 1},
		},
	}
	return parser, embedder
}

func TestNewEvaluator_BuildsIndexInOrder(t *testing.T) {
	parser, embedder := wellDocument()

	evaluator, err := NewEvaluator(context.Background(), "doc", parser, embedder, &stubNLI{}, nlp.CosineSimilarity{}, 4)
	require.NoError(t, err)
	require.Equal(t, 2, evaluator.SentenceCount())
	assert.Equal(t, []float32{1, 0}, evaluator.embeddings[0])
	assert.Equal(t, []float32{0, 1}, evaluator.embeddings[1])
}

func TestEvaluator_Evaluate(t *testing.T) {
	parser, embedder := wellDocument()
	nli := &stubNLI{
		verdicts: map[string]*nlp.NLIResult{
			"Was water found?": {Label: nlp.LabelContradiction, Confidence: 0.9},
		},
	}

	evaluator, err := NewEvaluator(context.Background(), "doc", parser, embedder, nli, nlp.CosineSimilarity{}, 1)
	require.NoError(t, err)

	result, err := evaluator.Evaluate(context.Background(), "Was water found?")
	require.NoError(t, err)
	assert.Equal(t, "No water was found.", result.HighestSimilaritySentence)
	assert.InDelta(t, 1.0, result.HighestSimilarityScore, 1e-6)
	assert.Equal(t, nlp.LabelContradiction, result.NLILabel)
	assert.InDelta(t, 0.9, result.NLIConfidence, 1e-9)
	assert.Equal(t, "Was water found?", result.Question)
}

func TestEvaluator_Evaluate_TieKeepsFirstSentence(t *testing.T) {
	parser := &stubParser{sentences: []string{"First sentence.", "Second sentence."}}
	embedder := &stubEmbedder{
		dimension: 2,
		vectors: map[string][]float32{
			"First sentence":  {1, 0},
			"Second sentence": {1, 0},
			"any question":    {1, 0},
		},
	}

	evaluator, err := NewEvaluator(context.Background(), "doc", parser, embedder, &stubNLI{}, nlp.CosineSimilarity{}, 1)
	require.NoError(t, err)

	result, err := evaluator.Evaluate(context.Background(), "Any question?")
	require.NoError(t, err)
	assert.Equal(t, "First sentence.", result.HighestSimilaritySentence)
}

func TestEvaluator_Evaluate_EmptyDocument(t *testing.T) {
	evaluator, err := NewEvaluator(context.Background(), "", &stubParser{}, &stubEmbedder{dimension: 2}, &stubNLI{}, nlp.CosineSimilarity{}, 1)
	require.NoError(t, err)

	_, err = evaluator.Evaluate(context.Background(), "Any question?")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestEvaluator_Evaluate_NLIFailure(t *testing.T) {
	parser, embedder := wellDocument()
	nli := &stubNLI{
		failures: map[string]error{
			"Was water found?": errors.New("model offline"),
		},
	}

	evaluator, err := NewEvaluator(context.Background(), "doc", parser, embedder, nli, nlp.CosineSimilarity{}, 1)
	require.NoError(t, err)

	_, err = evaluator.Evaluate(context.Background(), "Was water found?")
	assert.Error(t, err)
}
