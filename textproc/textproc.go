package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Transform is a pure text transformation. Transforms never fail and map
// empty input to empty output, so they can be composed freely.
type Transform func(string) string

// Chain folds a sequence of transforms into a single transform applied in
// declaration order.
func Chain(transforms ...Transform) Transform {
	return func(text string) string {
		for _, transform := range transforms {
			text = transform(text)
		}
		return text
	}
}

var multipleSpaces = regexp.MustCompile(`\s+`)

// StripNewlines replaces every newline with a single space.
func StripNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

// StripMultipleSpaces collapses runs of whitespace into a single space and
// trims the ends.
func StripMultipleSpaces(text string) string {
	return strings.TrimSpace(multipleSpaces.ReplaceAllString(text, " "))
}

// StripLineSpaces removes newlines and then collapses whitespace.
var StripLineSpaces = Chain(StripNewlines, StripMultipleSpaces)

// Lowercase lowers the whole text.
func Lowercase(text string) string {
	return strings.ToLower(text)
}

// Denoise keeps only alphabetic tokens and rejoins them with single spaces.
func Denoise(text string) string {
	return strings.Join(alphabeticTokens(text), " ")
}

// RemoveStopwords drops common English stopwords. Matching is
// case-insensitive; surviving tokens keep their original form.
func RemoveStopwords(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, field := range fields {
		if _, ok := englishStopwords[strings.ToLower(field)]; !ok {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, " ")
}

// NewLemmatizer builds a transform that replaces each token with its English
// lemma. The dictionary is loaded once; the returned transform is safe for
// concurrent use.
func NewLemmatizer() (Transform, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, err
	}
	return func(text string) string {
		fields := strings.Fields(text)
		for i, field := range fields {
			fields[i] = lemmatizer.Lemma(field)
		}
		return strings.Join(fields, " ")
	}, nil
}

// alphabeticTokens extracts maximal runs of letters, discarding digits,
// punctuation and symbols.
func alphabeticTokens(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
