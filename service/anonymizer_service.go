package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rubricscore-backend/nlp"
	"rubricscore-backend/textproc"
)

// ErrAnonymizationFailed indicates the anonymization pass could not
// complete. Skipping anonymization would leak name-gender signal into
// scoring, so this is always fatal for the request.
var ErrAnonymizationFailed = errors.New("anonymization failed")

// AnonymizerService replaces detected person names with generic gender
// tokens before a document is scored.
type AnonymizerService struct {
	parser     nlp.DocumentParser
	classifier nlp.GenderClassifier
}

// NewAnonymizerService creates a new anonymizer service.
func NewAnonymizerService(parser nlp.DocumentParser, classifier nlp.GenderClassifier) *AnonymizerService {
	return &AnonymizerService{parser: parser, classifier: classifier}
}

// genderLexicon holds the per-document name sets. A name belongs to at most
// one set; the first classification wins and is never revisited.
type genderLexicon struct {
	male   []string
	female []string
	seen   map[string]struct{}
}

func newGenderLexicon() *genderLexicon {
	return &genderLexicon{seen: make(map[string]struct{})}
}

func (l *genderLexicon) contains(name string) bool {
	_, ok := l.seen[strings.ToLower(name)]
	return ok
}

func (l *genderLexicon) add(name, gender string) {
	switch gender {
	case nlp.GenderMale:
		l.male = append(l.male, name)
	case nlp.GenderFemale:
		l.female = append(l.female, name)
	default:
		// Unrecognized category: the name joins neither set.
		return
	}
	l.seen[strings.ToLower(name)] = struct{}{}
}

// Anonymize detects person names, classifies each by first name, and
// replaces every whole-word occurrence in the original-cased text with
// "man" or "woman". Classifier and parser call failures are fatal.
func (s *AnonymizerService) Anonymize(ctx context.Context, text string) (string, error) {
	if s.parser == nil || s.classifier == nil {
		return "", errors.New("anonymizer dependencies not set")
	}

	normalized := textproc.Chain(textproc.StripLineSpaces, textproc.Lowercase)(text)
	parsed, err := s.parser.Parse(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnonymizationFailed, err)
	}

	lexicon := newGenderLexicon()
	for _, entity := range parsed.Entities {
		if entity.Label != nlp.LabelPerson {
			continue
		}
		if lexicon.contains(entity.Text) {
			continue
		}
		firstName := firstNameToken(entity.Text)
		if firstName == "" {
			continue
		}
		gender, err := s.classifier.Predict(ctx, firstName)
		if err != nil {
			return "", fmt.Errorf("%w: classify %q: %v", ErrAnonymizationFailed, firstName, err)
		}
		lexicon.add(entity.Text, gender)
	}

	anonymized := substituteNames(text, lexicon.male, "man")
	anonymized = substituteNames(anonymized, lexicon.female, "woman")
	return textproc.StripLineSpaces(anonymized), nil
}

// substituteNames replaces every case-insensitive whole-word occurrence of
// the given names. Word boundaries keep a name from matching inside a longer
// word ("Ann" never matches inside "Anna").
func substituteNames(text string, names []string, replacement string) string {
	if len(names) == 0 {
		return text
	}
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	pattern := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return pattern.ReplaceAllString(text, replacement)
}

// honorifics are dropped when extracting the first-name token of a detected
// entity.
var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {},
	"sir": {}, "madam": {}, "rev": {}, "hon": {},
}

// firstNameToken extracts the first-name token of a full name string.
func firstNameToken(name string) string {
	for _, field := range strings.Fields(name) {
		token := strings.Trim(strings.ToLower(field), ".,'\"")
		if token == "" {
			continue
		}
		if _, ok := honorifics[token]; ok {
			continue
		}
		return token
	}
	return ""
}
