package service

import (
	"context"
	"errors"
	"testing"

	"rubricscore-backend/models"
	"rubricscore-backend/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizeScore(t *testing.T) {
	tests := []struct {
		name           string
		label          string
		possibleScores []float64
		want           float64
		scored         bool
	}{
		{"entailment full range", nlp.LabelEntailment, []float64{0, 1, 2}, 2, true},
		{"neutral full range", nlp.LabelNeutral, []float64{0, 1, 2}, 1, true},
		{"contradiction full range", nlp.LabelContradiction, []float64{0, 1, 2}, 0, true},
		{"entailment two scores", nlp.LabelEntailment, []float64{2, 5}, 5, true},
		{"neutral two scores", nlp.LabelNeutral, []float64{2, 5}, 2, true},
		{"contradiction two scores unscored", nlp.LabelContradiction, []float64{2, 5}, 0, false},
		{"entailment single score", nlp.LabelEntailment, []float64{5}, 5, true},
		{"neutral single score unscored", nlp.LabelNeutral, []float64{5}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := StandardizeScore(tt.label, tt.possibleScores)
			require.NoError(t, err)
			assert.Equal(t, tt.scored, ok)
			if tt.scored {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStandardizeScore_UnknownLabel(t *testing.T) {
	_, _, err := StandardizeScore("maybe", []float64{0, 1, 2})
	assert.Error(t, err)
}

func TestReduceNodes(t *testing.T) {
	two := 2.0
	one := 1.0
	tree := []*models.RubricNode{
		{Index: "1", EvaluationScore: &two},
		{Index: "2", SubNodes: []*models.RubricNode{
			{Index: "2.1", EvaluationScore: &one},
			{Index: "2.2", EvaluationScore: nil},
		}},
	}

	sum, unscored := reduceNodes(tree)
	assert.Equal(t, 3.0, sum)
	assert.Equal(t, 1, unscored)
	require.NotNil(t, tree[1].EvaluationScore)
	assert.Equal(t, 1.0, *tree[1].EvaluationScore)
}

func TestCollectLeaves(t *testing.T) {
	tree := []*models.RubricNode{
		{Index: "1", Question: "a"},
		{Index: "2", SubNodes: []*models.RubricNode{
			{Index: "2.1", Question: "b"},
			{Index: "2.2", SubNodes: []*models.RubricNode{
				{Index: "2.2.1", Question: "c"},
			}},
		}},
	}

	leaves := collectLeaves(tree)
	require.Len(t, leaves, 3)
	assert.Equal(t, "1", leaves[0].Index)
	assert.Equal(t, "2.1", leaves[1].Index)
	assert.Equal(t, "2.2.1", leaves[2].Index)
}

func TestValidateSections(t *testing.T) {
	valid := models.SectionList{
		{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", Question: "q", PossibleScores: []float64{0, 1}},
		}},
	}
	assert.NoError(t, validateSections(valid))

	tests := []struct {
		name     string
		sections models.SectionList
	}{
		{"no sections", models.SectionList{}},
		{"no criteria", models.SectionList{{Name: "S"}}},
		{"missing index", models.SectionList{{Name: "S", Criteria: []*models.RubricNode{
			{Question: "q", PossibleScores: []float64{1}},
		}}}},
		{"no possible scores", models.SectionList{{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", Question: "q"},
		}}}},
		{"too many possible scores", models.SectionList{{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", Question: "q", PossibleScores: []float64{0, 1, 2, 3}},
		}}}},
		{"leaf without question", models.SectionList{{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", PossibleScores: []float64{0, 1}},
		}}}},
		{"invalid sub node", models.SectionList{{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", PossibleScores: []float64{0, 1}, SubNodes: []*models.RubricNode{
				{Index: "1.1", PossibleScores: []float64{0, 1}},
			}},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSections(tt.sections)
			assert.ErrorIs(t, err, ErrMalformedRubric)
		})
	}
}

// wellService wires an evaluation service around the two-sentence fixture
// with every provider stubbed.
func wellService(nli *stubNLI) *EvaluationService {
	parser, embedder := wellDocument()
	return NewEvaluationService(
		WithAnonymizer(NewAnonymizerService(&stubParser{}, &stubGenderClassifier{})),
		WithDocumentParser(parser),
		WithEmbedder(embedder),
		WithNLIClassifier(nli),
		WithWorkers(2),
	)
}

func TestEvaluateDocument(t *testing.T) {
	nli := &stubNLI{
		verdicts: map[string]*nlp.NLIResult{
			"Was the well dry?": {Label: nlp.LabelEntailment, Confidence: 0.8},
			"Was water found?":  {Label: nlp.LabelContradiction, Confidence: 0.9},
		},
	}
	svc := wellService(nli)

	sections := models.SectionList{
		{Name: "Findings", Criteria: []*models.RubricNode{
			{Index: "1", Question: "Was the well dry?", PossibleScores: []float64{0, 1, 2}},
			{Index: "2", Question: "Was water found?", PossibleScores: []float64{2, 5}},
			{Index: "3", PossibleScores: []float64{0, 1, 2}, SubNodes: []*models.RubricNode{
				{Index: "3.1", Question: "Was the well dry?", PossibleScores: []float64{1}},
				{Index: "3.2", Question: "Was water found?", PossibleScores: []float64{0, 1, 2}},
			}},
		}},
	}

	result, err := svc.EvaluateDocument(context.Background(), sections, "The well was dry. No water was found.")
	require.NoError(t, err)

	section := result.Evaluation[0]

	// Leaf 1: entailment over three scores.
	require.NotNil(t, section.Criteria[0].EvaluationScore)
	assert.Equal(t, 2.0, *section.Criteria[0].EvaluationScore)
	require.NotNil(t, section.Criteria[0].EvaluationResult)
	assert.Equal(t, "The well was dry.", section.Criteria[0].EvaluationResult.HighestSimilaritySentence)

	// Leaf 2: contradiction with only two declared scores stays unscored.
	assert.Nil(t, section.Criteria[1].EvaluationScore)
	require.NotNil(t, section.Criteria[1].EvaluationResult)
	assert.Equal(t, nlp.LabelContradiction, section.Criteria[1].EvaluationResult.NLILabel)

	// Node 3: internal score is the exact sum of its children (1 + 0).
	require.NotNil(t, section.Criteria[2].EvaluationScore)
	assert.Equal(t, 1.0, *section.Criteria[2].EvaluationScore)
	assert.Nil(t, section.Criteria[2].EvaluationResult)

	assert.Equal(t, 3.0, section.EvaluationScore)
	assert.Equal(t, 1, section.UnscoredCriteria)
	assert.Equal(t, 3.0, result.EvaluationScore)
	assert.Equal(t, 1, result.UnscoredCriteria)
}

func TestEvaluateDocument_NLIFailureAbortsSection(t *testing.T) {
	nli := &stubNLI{
		failures: map[string]error{
			"Was water found?": errors.New("model offline"),
		},
	}
	svc := wellService(nli)

	sections := models.SectionList{
		{Name: "Findings", Criteria: []*models.RubricNode{
			{Index: "1", Question: "Was water found?", PossibleScores: []float64{0, 1, 2}},
		}},
	}

	_, err := svc.EvaluateDocument(context.Background(), sections, "The well was dry. No water was found.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Findings")
}

func TestEvaluateDocument_MalformedRubric(t *testing.T) {
	svc := wellService(&stubNLI{})

	_, err := svc.EvaluateDocument(context.Background(), models.SectionList{}, "Some document.")
	assert.ErrorIs(t, err, ErrMalformedRubric)
}

func TestEvaluateDocument_MissingDependencies(t *testing.T) {
	svc := NewEvaluationService()

	sections := models.SectionList{
		{Name: "S", Criteria: []*models.RubricNode{
			{Index: "1", Question: "q", PossibleScores: []float64{1}},
		}},
	}

	_, err := svc.EvaluateDocument(context.Background(), sections, "doc")
	assert.Error(t, err)
}

func TestEvaluate_MissingDocument(t *testing.T) {
	svc := wellService(&stubNLI{})

	_, err := svc.Evaluate(context.Background(), EvaluateRequest{Sector: "generic", Document: "   "})
	assert.Error(t, err)
}
