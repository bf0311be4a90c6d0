package nlp

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Embedder maps text to a fixed-length vector. Dimensionality is constant
// for the lifetime of the embedder; empty or fully out-of-vocabulary input
// yields the zero vector, never an error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// GeminiEmbedder embeds text through the Gemini embedding API.
type GeminiEmbedder struct {
	model     *genai.EmbeddingModel
	dimension int
}

// NewGeminiEmbedder wraps an embedding model of the given client. dimension
// is the dimensionality the model is known to produce and is enforced on
// every response.
func NewGeminiEmbedder(client *genai.Client, modelName string, dimension int) *GeminiEmbedder {
	return &GeminiEmbedder{
		model:     client.EmbeddingModel(modelName),
		dimension: dimension,
	}
}

// Dimension returns the configured output dimensionality.
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

// Embed calls the embedding API and returns a unit-normalized vector.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dimension), nil
	}

	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: embedding call failed: %v", ErrModelUnavailable, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: embedding response empty", ErrModelUnavailable)
	}
	values := res.Embedding.Values
	if len(values) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: want %d, got %d", e.dimension, len(values))
	}

	normalizeVector(values)
	return values, nil
}

// KeyedVectorEmbedder embeds text by averaging per-token word vectors loaded
// from a word2vec-format text file. Out-of-vocabulary tokens contribute a
// zero vector to the average, matching GloVe-style sentence embedding.
type KeyedVectorEmbedder struct {
	vectors   map[string][]float32
	dimension int
}

// LoadKeyedVectors reads a word2vec text file ("word v1 v2 ..." per line,
// with an optional "count dim" header line) into memory.
func LoadKeyedVectors(path string) (*KeyedVectorEmbedder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open vectors file: %v", ErrModelUnavailable, err)
	}
	defer file.Close()

	embedder := &KeyedVectorEmbedder{vectors: make(map[string][]float32)}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			// word2vec files often start with a "count dim" header.
			if len(fields) == 2 {
				if _, err := strconv.Atoi(fields[0]); err == nil {
					if dim, err := strconv.Atoi(fields[1]); err == nil {
						embedder.dimension = dim
						continue
					}
				}
			}
		}
		word := fields[0]
		vector := make([]float32, len(fields)-1)
		for i, field := range fields[1:] {
			value, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("parse vector for %q: %w", word, err)
			}
			vector[i] = float32(value)
		}
		if embedder.dimension == 0 {
			embedder.dimension = len(vector)
		} else if len(vector) != embedder.dimension {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d", word, len(vector), embedder.dimension)
		}
		embedder.vectors[word] = vector
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vectors file: %w", err)
	}
	if len(embedder.vectors) == 0 {
		return nil, fmt.Errorf("%w: vectors file %s holds no vectors", ErrModelUnavailable, path)
	}
	return embedder, nil
}

// Dimension returns the word-vector dimensionality.
func (e *KeyedVectorEmbedder) Dimension() int {
	return e.dimension
}

// Embed averages the vectors of the lowercased tokens of text.
func (e *KeyedVectorEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]float32, e.dimension)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return result, nil
	}

	for _, token := range tokens {
		vector, ok := e.vectors[token]
		if !ok {
			continue
		}
		for i, value := range vector {
			result[i] += value
		}
	}
	// Unknown tokens still count toward the average, as in GloVe sentence
	// averaging with zero vectors for out-of-vocabulary words.
	count := float32(len(tokens))
	for i := range result {
		result[i] /= count
	}
	return result, nil
}

func normalizeVector(values []float32) {
	var norm float64
	for _, v := range values {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range values {
		values[i] = float32(float64(values[i]) / norm)
	}
}
