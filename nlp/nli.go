package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Canonical NLI labels, ordered from most to least severe outcome. Score
// standardization relies on this order.
const (
	LabelContradiction = "contradiction"
	LabelNeutral       = "neutral"
	LabelEntailment    = "entailment"
)

// CanonicalLabels is the fixed label order [contradiction, neutral,
// entailment].
var CanonicalLabels = []string{LabelContradiction, LabelNeutral, LabelEntailment}

// NLIResult is the outcome of a premise/hypothesis inference.
type NLIResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"score"`
}

// NLIClassifier judges whether a premise entails, contradicts or is neutral
// toward a hypothesis.
type NLIClassifier interface {
	Classify(ctx context.Context, premise, hypothesis string) (*NLIResult, error)
}

const (
	nliMaxRetries     = 3
	nliInitialBackoff = time.Second
)

// InferenceNLIClassifier calls a hosted text-classification endpoint serving
// an MNLI model (e.g. a HuggingFace inference server running
// valhalla/distilbart-mnli-12-3). The premise and hypothesis are joined with
// the [SEP] marker the model family expects.
type InferenceNLIClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewInferenceNLIClassifier builds a classifier for the given endpoint.
// apiKey may be empty for unauthenticated local servers.
func NewInferenceNLIClassifier(endpoint, apiKey string) *InferenceNLIClassifier {
	return &InferenceNLIClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type nliLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify implements NLIClassifier. Transport-level failures are retried
// with exponential backoff; a malformed or unrecognized model response is
// fatal.
func (c *InferenceNLIClassifier) Classify(ctx context.Context, premise, hypothesis string) (*NLIResult, error) {
	payload, err := json.Marshal(map[string]string{
		"inputs": premise + " [SEP] " + hypothesis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := nliInitialBackoff
	for attempt := 0; attempt < nliMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt == nliMaxRetries-1 {
				return nil, fmt.Errorf("%w: NLI request failed after %d attempts: %v", ErrModelUnavailable, nliMaxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			result, err := decodeNLIResponse(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			return result, nil
		}
		resp.Body.Close()

		// Client errors will not improve on retry.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: NLI API error: %d", ErrModelUnavailable, resp.StatusCode)
		}
		if attempt == nliMaxRetries-1 {
			return nil, fmt.Errorf("%w: NLI API error after %d attempts: %d", ErrModelUnavailable, nliMaxRetries, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("%w: NLI call exhausted retries", ErrModelUnavailable)
}

// decodeNLIResponse accepts either the nested [[{label,score}...]] or the
// flat [{label,score}...] shape returned by text-classification servers and
// picks the highest-scoring label.
func decodeNLIResponse(body io.Reader) (*NLIResult, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode NLI response: %w", err)
	}

	var candidates []nliLabelScore
	var nested [][]nliLabelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		candidates = nested[0]
	} else if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("unexpected NLI response shape: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: NLI response holds no labels", ErrModelUnavailable)
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}

	label, err := canonicalizeLabel(best.Label)
	if err != nil {
		return nil, err
	}
	return &NLIResult{Label: label, Confidence: best.Score}, nil
}

func canonicalizeLabel(label string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	switch normalized {
	case LabelContradiction, LabelNeutral, LabelEntailment:
		return normalized, nil
	}
	return "", fmt.Errorf("unrecognized NLI label: %q", label)
}
