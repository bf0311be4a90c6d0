package service

import (
	"context"
	"errors"
	"fmt"

	"rubricscore-backend/models"
	"rubricscore-backend/nlp"
	"rubricscore-backend/textproc"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyDocument indicates the submitted document yielded no sentences to
// search.
var ErrEmptyDocument = errors.New("document holds no sentences")

// Evaluator answers rubric questions against one document. It segments the
// document into sentences, embeds each exactly once, and is then read-only:
// Evaluate may be called concurrently for many questions.
type Evaluator struct {
	sentences     []string
	embeddings    [][]float32
	embedder      nlp.Embedder
	nli           nlp.NLIClassifier
	strategy      nlp.SimilarityStrategy
	questionChain textproc.Transform
}

// NewEvaluator parses the (already anonymized) document and builds the
// sentence embedding index. Sentence embedding is blocking provider work and
// runs on a bounded worker group; document order is preserved.
func NewEvaluator(
	ctx context.Context,
	document string,
	parser nlp.DocumentParser,
	embedder nlp.Embedder,
	nli nlp.NLIClassifier,
	strategy nlp.SimilarityStrategy,
	workers int,
) (*Evaluator, error) {
	parsed, err := parser.Parse(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	e := &Evaluator{
		sentences:     parsed.Sentences,
		embeddings:    make([][]float32, len(parsed.Sentences)),
		embedder:      embedder,
		nli:           nli,
		strategy:      strategy,
		questionChain: textproc.Chain(textproc.StripNewlines, textproc.Lowercase, textproc.Denoise),
	}

	if workers <= 0 {
		workers = 1
	}
	sentenceChain := textproc.Chain(textproc.StripNewlines, textproc.Denoise)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sentence := range parsed.Sentences {
		g.Go(func() error {
			vector, err := embedder.Embed(gctx, sentenceChain(sentence))
			if err != nil {
				return fmt.Errorf("failed to embed sentence %d: %w", i, err)
			}
			e.embeddings[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e, nil
}

// SentenceCount returns how many sentences the index holds.
func (e *Evaluator) SentenceCount() int {
	return len(e.sentences)
}

// Evaluate finds the document sentence most similar to the question and runs
// entailment with that sentence as premise. The premise keeps its original
// phrasing and the hypothesis is the raw question: only the similarity
// search sees normalized text. On exact similarity ties the earliest
// sentence in document order wins.
func (e *Evaluator) Evaluate(ctx context.Context, question string) (*models.EvaluationResult, error) {
	if len(e.sentences) == 0 {
		return nil, ErrEmptyDocument
	}

	queryVector, err := e.embedder.Embed(ctx, e.questionChain(question))
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	scores := e.strategy.Scores(queryVector, e.embeddings)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	premise := e.sentences[best]

	verdict, err := e.nli.Classify(ctx, premise, question)
	if err != nil {
		return nil, fmt.Errorf("entailment failed: %w", err)
	}

	return &models.EvaluationResult{
		Question:                  question,
		HighestSimilarityScore:    scores[best],
		HighestSimilaritySentence: premise,
		NLILabel:                  verdict.Label,
		NLIConfidence:             verdict.Confidence,
	}, nil
}
