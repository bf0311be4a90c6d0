package models

import (
	"database/sql/driver"
	"encoding/json"
)

// EvaluationResult records how a leaf criterion was judged against the
// document: the question asked, the best-matching sentence with its
// similarity score, and the NLI verdict for that sentence.
type EvaluationResult struct {
	Question                  string  `json:"evaluation_question"`
	HighestSimilarityScore    float64 `json:"highest_similarity_score"`
	HighestSimilaritySentence string  `json:"highest_similarity_sentence"`
	NLILabel                  string  `json:"nli_label"`
	NLIConfidence             float64 `json:"nli_confidence"`
}

// RubricNode is one criterion in a sector rubric. A node is a leaf iff it
// has no sub-criteria; only leaves carry an EvaluationResult. An internal
// node's EvaluationScore is always the exact sum of its children's scores.
// A nil EvaluationScore on an evaluated leaf marks an unscored outcome
// (no possible score was declared for the resolved NLI label); it is
// serialized as an explicit null, never coerced to zero.
type RubricNode struct {
	Index            string            `json:"index"`
	Question         string            `json:"question"`
	PossibleScores   []float64         `json:"possible_scores"`
	SubNodes         []*RubricNode     `json:"sub_criteria,omitempty"`
	EvaluationResult *EvaluationResult `json:"evaluation_result,omitempty"`
	EvaluationScore  *float64          `json:"evaluation_score"`
}

// IsLeaf reports whether the node has no sub-criteria.
func (n *RubricNode) IsLeaf() bool {
	return len(n.SubNodes) == 0
}

// Section is a top-level rubric container. Its EvaluationScore is the sum of
// its criteria's scores; UnscoredCriteria counts leaves whose NLI label
// resolved to no declared score.
type Section struct {
	Name             string        `json:"name"`
	Criteria         []*RubricNode `json:"criteria"`
	EvaluationScore  float64       `json:"evaluation_score"`
	UnscoredCriteria int           `json:"unscored_criteria,omitempty"`
}

// SectionList is the JSONB persistence shape of a sector rubric: the ordered
// sections as stored in the sector_rubrics table.
type SectionList []*Section

// Value implements driver.Valuer for JSONB.
func (l SectionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB.
func (l *SectionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}
