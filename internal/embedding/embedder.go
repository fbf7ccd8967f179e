// Package embedding provides text embedding generation with multiple
// backend support.
package embedding

import (
	"context"
	"fmt"

	"github.com/l0l1/l0l1-go/internal/config"
)

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// More efficient than multiple Embed calls for bulk operations.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// ProviderError wraps a failure from an external AI provider. Callers
// degrade gracefully on it: recording continues without an embedding,
// retrieval returns no matches.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New creates an Embedder for the configured provider.
func New(ctx context.Context, cfg config.Config) (Embedder, error) {
	switch cfg.EmbedProvider {
	case config.ProviderOllama, config.ProviderOpenAI:
		return NewLangchainEmbedder(cfg)

	case config.ProviderVoyage, config.ProviderAnthropic:
		// Anthropic has no native embedding API; Voyage is their
		// recommended embedding partner.
		return NewVoyageClient(cfg.VoyageAPIKey, cfg.EmbedModel, cfg.EmbedDimension)

	case config.ProviderBedrock:
		return NewBedrockClient(ctx, cfg.BedrockRegion, cfg.EmbedModel, cfg.EmbedDimension)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbedProvider)
	}
}
