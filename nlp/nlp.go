// Package nlp holds the language-model collaborators the evaluation core
// depends on: document parsing, sentence embedding, natural language
// inference and first-name gender classification. Every provider is an
// interface so the service layer can be exercised without live models.
package nlp

import "errors"

// ErrModelUnavailable indicates a model provider is not loaded or a call to
// it failed. It is fatal for the in-flight request and never retried by the
// core.
var ErrModelUnavailable = errors.New("model unavailable")
