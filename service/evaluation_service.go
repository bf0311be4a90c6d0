package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rubricscore-backend/models"
	"rubricscore-backend/nlp"
	"rubricscore-backend/repository"
	"rubricscore-backend/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMalformedRubric indicates the stored rubric tree violates the node
	// schema. It is raised before any evaluation work begins.
	ErrMalformedRubric = errors.New("malformed rubric")

	// ErrMissingDocument indicates the request carried no document text.
	ErrMissingDocument = errors.New("document text is required")
)

const defaultWorkers = 8

// EvaluationService scores a submitted document against a sector rubric.
type EvaluationService struct {
	rubricRepo *repository.RubricRepository
	logRepo    *repository.EvaluationLogRepository
	anonymizer *AnonymizerService
	parser     nlp.DocumentParser
	embedder   nlp.Embedder
	nli        nlp.NLIClassifier
	strategy   nlp.SimilarityStrategy
	documents  storage.Storage
	workers    int
}

// EvaluationServiceOption is a functional option for EvaluationService.
type EvaluationServiceOption func(*EvaluationService)

// WithRubricRepository sets the rubric repository.
func WithRubricRepository(repo *repository.RubricRepository) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.rubricRepo = repo
	}
}

// WithEvaluationLogRepository sets the evaluation log repository.
func WithEvaluationLogRepository(repo *repository.EvaluationLogRepository) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.logRepo = repo
	}
}

// WithAnonymizer sets the anonymizer service.
func WithAnonymizer(anonymizer *AnonymizerService) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.anonymizer = anonymizer
	}
}

// WithDocumentParser sets the document parser.
func WithDocumentParser(parser nlp.DocumentParser) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.parser = parser
	}
}

// WithEmbedder sets the embedding provider.
func WithEmbedder(embedder nlp.Embedder) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.embedder = embedder
	}
}

// WithNLIClassifier sets the NLI provider.
func WithNLIClassifier(nli nlp.NLIClassifier) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.nli = nli
	}
}

// WithSimilarityStrategy sets the similarity strategy.
func WithSimilarityStrategy(strategy nlp.SimilarityStrategy) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.strategy = strategy
	}
}

// WithDocumentStorage sets the archive for submitted documents.
func WithDocumentStorage(documents storage.Storage) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.documents = documents
	}
}

// WithWorkers bounds the number of concurrent leaf evaluations per section.
func WithWorkers(workers int) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.workers = workers
	}
}

// NewEvaluationService creates a new evaluation service.
func NewEvaluationService(opts ...EvaluationServiceOption) *EvaluationService {
	s := &EvaluationService{
		strategy: nlp.CosineSimilarity{},
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateRequest represents a request to evaluate a document.
type EvaluateRequest struct {
	Sector       string
	DocumentName string
	Document     string
}

// EvaluateResult represents a completed document evaluation.
type EvaluateResult struct {
	ID               uuid.UUID          `json:"id"`
	Sector           string             `json:"sector"`
	Evaluation       models.SectionList `json:"evaluation"`
	EvaluationScore  float64            `json:"evaluation_score"`
	UnscoredCriteria int                `json:"unscored_criteria,omitempty"`
}

// Evaluate loads the sector rubric, scores the document against it, archives
// the document and records an evaluation log entry.
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	if s.rubricRepo == nil {
		return nil, errors.New("rubric repository not set")
	}
	if strings.TrimSpace(req.Document) == "" {
		return nil, ErrMissingDocument
	}

	start := time.Now()

	sections, err := s.rubricRepo.GetBySector(ctx, req.Sector)
	if err != nil {
		return nil, err
	}

	result, err := s.EvaluateDocument(ctx, sections, req.Document)
	if err != nil {
		return nil, err
	}
	result.ID = uuid.New()
	result.Sector = req.Sector

	archivePath := s.archiveDocument(ctx, result.ID, req.DocumentName, req.Document)

	if s.logRepo != nil {
		entry := &models.EvaluationLog{
			ID:              result.ID,
			Sector:          req.Sector,
			DocumentName:    req.DocumentName,
			DocumentPath:    archivePath,
			EvaluationScore: result.EvaluationScore,
			DurationMs:      time.Since(start).Milliseconds(),
		}
		if err := s.logRepo.Create(ctx, entry); err != nil {
			log.Printf("Warning: failed to record evaluation log: %v", err)
		}
	}

	return result, nil
}

// EvaluateDocument runs the core pipeline against an already loaded rubric:
// validate, anonymize, index, evaluate every section. The rubric tree is
// mutated in place and returned inside the result.
func (s *EvaluationService) EvaluateDocument(ctx context.Context, sections models.SectionList, document string) (*EvaluateResult, error) {
	if s.anonymizer == nil {
		return nil, errors.New("anonymizer not set")
	}
	if s.parser == nil {
		return nil, errors.New("document parser not set")
	}
	if s.embedder == nil {
		return nil, errors.New("embedding provider not set")
	}
	if s.nli == nil {
		return nil, errors.New("NLI provider not set")
	}

	if err := validateSections(sections); err != nil {
		return nil, err
	}

	anonymized, err := s.anonymizer.Anonymize(ctx, document)
	if err != nil {
		return nil, err
	}

	evaluator, err := NewEvaluator(ctx, anonymized, s.parser, s.embedder, s.nli, s.strategy, s.workers)
	if err != nil {
		return nil, err
	}

	result := &EvaluateResult{Evaluation: sections}
	for _, section := range sections {
		if err := s.evaluateSection(ctx, evaluator, section); err != nil {
			return nil, fmt.Errorf("section %q: %w", section.Name, err)
		}
		result.EvaluationScore += section.EvaluationScore
		result.UnscoredCriteria += section.UnscoredCriteria
	}
	return result, nil
}

// evaluateSection scores one section. The section's leaves are flattened
// into a single batch on a bounded worker group, so a parent never holds a
// slot while waiting for its children; internal scores are then filled by a
// bottom-up reduction. The first leaf failure cancels the group and aborts
// the section.
func (s *EvaluationService) evaluateSection(ctx context.Context, evaluator *Evaluator, section *models.Section) error {
	workers := s.workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, leaf := range collectLeaves(section.Criteria) {
		g.Go(func() error {
			return s.evaluateLeaf(gctx, evaluator, leaf)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	section.EvaluationScore, section.UnscoredCriteria = reduceNodes(section.Criteria)
	return nil
}

// evaluateLeaf runs semantic search plus entailment for one leaf criterion
// and standardizes the verdict to a score.
func (s *EvaluationService) evaluateLeaf(ctx context.Context, evaluator *Evaluator, node *models.RubricNode) error {
	result, err := evaluator.Evaluate(ctx, node.Question)
	if err != nil {
		return fmt.Errorf("criterion %s: %w", node.Index, err)
	}
	node.EvaluationResult = result

	score, ok, err := StandardizeScore(result.NLILabel, node.PossibleScores)
	if err != nil {
		return fmt.Errorf("criterion %s: %w", node.Index, err)
	}
	if !ok {
		log.Printf("Warning: criterion %s: label %q has no slot among %d possible scores, leaving unscored",
			node.Index, result.NLILabel, len(node.PossibleScores))
		node.EvaluationScore = nil
		return nil
	}
	node.EvaluationScore = &score
	return nil
}

// StandardizeScore maps an NLI label onto a node's declared possible scores.
// possible_scores is ordered most-negative outcome first. When fewer than 3
// scores are declared, the mapping is left-padded so the most severe labels
// (starting from contradiction) have no slot: the second return value is
// false for such an unscored outcome.
func StandardizeScore(label string, possibleScores []float64) (float64, bool, error) {
	labelIndex := -1
	for i, canonical := range nlp.CanonicalLabels {
		if canonical == label {
			labelIndex = i
			break
		}
	}
	if labelIndex < 0 {
		return 0, false, fmt.Errorf("unknown NLI label: %q", label)
	}

	slot := labelIndex - (len(nlp.CanonicalLabels) - len(possibleScores))
	if slot < 0 {
		return 0, false, nil
	}
	return possibleScores[slot], true, nil
}

// collectLeaves flattens a criteria tree into its leaf nodes, in document
// order.
func collectLeaves(nodes []*models.RubricNode) []*models.RubricNode {
	var leaves []*models.RubricNode
	for _, node := range nodes {
		if node.IsLeaf() {
			leaves = append(leaves, node)
			continue
		}
		leaves = append(leaves, collectLeaves(node.SubNodes)...)
	}
	return leaves
}

// reduceNodes fills internal-node scores bottom-up and returns the score sum
// and unscored-leaf count for the given sibling list. Internal nodes are
// never standardized; their score is the exact sum of their children.
func reduceNodes(nodes []*models.RubricNode) (float64, int) {
	var sum float64
	var unscored int
	for _, node := range nodes {
		if node.IsLeaf() {
			if node.EvaluationScore == nil {
				unscored++
				continue
			}
			sum += *node.EvaluationScore
			continue
		}
		childSum, childUnscored := reduceNodes(node.SubNodes)
		node.EvaluationScore = &childSum
		sum += childSum
		unscored += childUnscored
	}
	return sum, unscored
}

// validateSections checks the rubric tree shape before any evaluation work
// begins.
func validateSections(sections models.SectionList) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: rubric holds no sections", ErrMalformedRubric)
	}
	for _, section := range sections {
		if len(section.Criteria) == 0 {
			return fmt.Errorf("%w: section %q holds no criteria", ErrMalformedRubric, section.Name)
		}
		for _, node := range section.Criteria {
			if err := validateNode(node); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateNode(node *models.RubricNode) error {
	if node.Index == "" {
		return fmt.Errorf("%w: node missing index", ErrMalformedRubric)
	}
	if len(node.PossibleScores) == 0 {
		return fmt.Errorf("%w: node %s has no possible scores", ErrMalformedRubric, node.Index)
	}
	if len(node.PossibleScores) > len(nlp.CanonicalLabels) {
		return fmt.Errorf("%w: node %s declares %d possible scores, at most %d are mappable",
			ErrMalformedRubric, node.Index, len(node.PossibleScores), len(nlp.CanonicalLabels))
	}
	if node.IsLeaf() && strings.TrimSpace(node.Question) == "" {
		return fmt.Errorf("%w: leaf %s missing question", ErrMalformedRubric, node.Index)
	}
	for _, child := range node.SubNodes {
		if err := validateNode(child); err != nil {
			return err
		}
	}
	return nil
}

// archiveDocument stores the submitted text for later inspection. Archival
// is best effort and never fails the evaluation.
func (s *EvaluationService) archiveDocument(ctx context.Context, id uuid.UUID, name, document string) string {
	if s.documents == nil {
		return ""
	}
	if name == "" {
		name = "document.txt"
	}
	path, err := s.documents.Put(ctx, id, name, strings.NewReader(document))
	if err != nil {
		log.Printf("Warning: failed to archive document %s: %v", name, err)
		return ""
	}
	return path
}
