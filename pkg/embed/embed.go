// Package embed converts text to fixed-dimension normalized vectors
// using an OpenAI-compatible embedding API.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder generates a vector embedding for a single text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Client implements Embedder against an OpenAI-compatible embedding
// endpoint (a local inference server or a hosted API).
type Client struct {
	embedder  embeddings.Embedder
	dimension int
	prefix    string
	logger    *slog.Logger
}

var _ Embedder = (*Client)(nil)

// NewClient creates an embedding client. host is the base URL of the
// service, model the embedding model identifier. prefix is prepended to
// every input (E5-style models expect "passage: "). dimension, when
// positive, is enforced on every returned vector.
func NewClient(host, model, prefix string, dimension int) (*Client, error) {
	// "none" keeps local OpenAI-compatible servers happy without a key.
	llm, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &Client{
		embedder:  embedder,
		dimension: dimension,
		prefix:    prefix,
		logger:    slog.Default().With("component", "embedder"),
	}, nil
}

// EmbedText returns the L2-normalized embedding for text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embedder.EmbedDocuments(ctx, []string{c.prefix + text})
	if err != nil {
		c.logger.Error("embedding request failed", "err", err)
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed text: empty response")
	}

	vec := vecs[0]
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, fmt.Errorf("embed text: dimension %d, want %d", len(vec), c.dimension)
	}

	Normalize(vec)
	return vec, nil
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left
// unchanged.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
