package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Gender labels form a closed set: the classifier always answers one of the
// two or the call fails.
const (
	GenderFemale = "female"
	GenderMale   = "male"
)

// GenderClassifier predicts the gender associated with a first name.
type GenderClassifier interface {
	Predict(ctx context.Context, firstName string) (string, error)
}

// CountVectorizer turns a name into character n-gram counts over a fitted
// vocabulary. Names are lowercased and padded with spaces so n-grams capture
// word boundaries.
type CountVectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	NgramMin   int            `json:"ngram_min"`
	NgramMax   int            `json:"ngram_max"`
}

// Transform returns sparse feature counts indexed by vocabulary position.
func (v *CountVectorizer) Transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	padded := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	runes := []rune(padded)
	for size := v.NgramMin; size <= v.NgramMax; size++ {
		for i := 0; i+size <= len(runes); i++ {
			ngram := string(runes[i : i+size])
			if index, ok := v.Vocabulary[ngram]; ok {
				counts[index]++
			}
		}
	}
	return counts
}

// Chi2Selector keeps the feature indices retained by chi-squared selection
// at training time, in ascending order.
type Chi2Selector struct {
	Support []int `json:"selected_features"`
}

// Transform projects sparse counts onto the selected features, producing the
// dense vector the linear model was trained on.
func (s *Chi2Selector) Transform(features map[int]float64) []float64 {
	selected := make([]float64, len(s.Support))
	for position, index := range s.Support {
		selected[position] = features[index]
	}
	return selected
}

// genderModel holds the trained linear decision function. A positive
// decision value selects Classes[1].
type genderModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Classes   []string  `json:"classes"`
}

// PipelineGenderClassifier is the vectorizer -> selector -> linear model
// pipeline trained offline and loaded from a JSON artifact.
type PipelineGenderClassifier struct {
	vectorizer CountVectorizer
	selector   Chi2Selector
	model      genderModel
}

type genderArtifact struct {
	CountVectorizer
	Chi2Selector
	genderModel
}

// LoadGenderClassifier reads the trained pipeline artifact from path.
func LoadGenderClassifier(path string) (*PipelineGenderClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read gender model: %v", ErrModelUnavailable, err)
	}

	var artifact genderArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse gender model %s: %w", path, err)
	}
	return NewPipelineGenderClassifier(artifact.CountVectorizer, artifact.Chi2Selector, artifact.Weights, artifact.Intercept, artifact.Classes)
}

// NewPipelineGenderClassifier validates and assembles a classifier from its
// trained parts.
func NewPipelineGenderClassifier(vectorizer CountVectorizer, selector Chi2Selector, weights []float64, intercept float64, classes []string) (*PipelineGenderClassifier, error) {
	if len(vectorizer.Vocabulary) == 0 {
		return nil, fmt.Errorf("gender model: empty vocabulary")
	}
	if vectorizer.NgramMin < 1 || vectorizer.NgramMax < vectorizer.NgramMin {
		return nil, fmt.Errorf("gender model: invalid n-gram range [%d, %d]", vectorizer.NgramMin, vectorizer.NgramMax)
	}
	if len(weights) != len(selector.Support) {
		return nil, fmt.Errorf("gender model: %d weights for %d selected features", len(weights), len(selector.Support))
	}
	if len(classes) != 2 {
		return nil, fmt.Errorf("gender model: want exactly 2 classes, got %d", len(classes))
	}
	return &PipelineGenderClassifier{
		vectorizer: vectorizer,
		selector:   selector,
		model:      genderModel{Weights: weights, Intercept: intercept, Classes: classes},
	}, nil
}

// Predict classifies a first name as one of the two trained classes.
func (c *PipelineGenderClassifier) Predict(ctx context.Context, firstName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(firstName) == "" {
		return "", fmt.Errorf("cannot classify empty name")
	}

	features := c.selector.Transform(c.vectorizer.Transform(firstName))
	decision := c.model.Intercept
	for i, weight := range c.model.Weights {
		decision += weight * features[i]
	}
	if decision > 0 {
		return c.model.Classes[1], nil
	}
	return c.model.Classes[0], nil
}
