package nlp

import (
	"context"
	"fmt"

	prose "github.com/jdkato/prose/v2"
)

// LabelPerson is the named-entity label for person names.
const LabelPerson = "PERSON"

// Entity is a named-entity span detected in a document.
type Entity struct {
	Text  string
	Label string
}

// ParsedDocument is the parsed view of a text: sentence boundaries and
// named-entity spans, both in document order.
type ParsedDocument struct {
	Text      string
	Sentences []string
	Entities  []Entity
}

// DocumentParser segments text into sentences and detects named entities.
type DocumentParser interface {
	Parse(ctx context.Context, text string) (*ParsedDocument, error)
}

// ProseParser implements DocumentParser on top of the prose NLP library.
type ProseParser struct{}

// NewProseParser returns a ready-to-use parser. The underlying models are
// loaded lazily by prose on first use and shared afterwards.
func NewProseParser() *ProseParser {
	return &ProseParser{}
}

// Parse runs sentence segmentation and named-entity recognition. Empty input
// yields an empty document, not an error.
func (p *ProseParser) Parse(ctx context.Context, text string) (*ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return &ParsedDocument{}, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("%w: document parse failed: %v", ErrModelUnavailable, err)
	}

	parsed := &ParsedDocument{Text: text}
	for _, sentence := range doc.Sentences() {
		parsed.Sentences = append(parsed.Sentences, sentence.Text)
	}
	for _, entity := range doc.Entities() {
		parsed.Entities = append(parsed.Entities, Entity{Text: entity.Text, Label: entity.Label})
	}
	return parsed, nil
}
