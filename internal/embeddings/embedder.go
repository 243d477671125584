package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder turns product descriptions into vectors for the semantic index.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// New creates an embedder for a provider name from configuration. It returns
// nil, nil for "none", which disables the semantic index.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "", "local":
		return NewHashEmbedder(DefaultHashDimensions), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		if model == "" {
			model = string(ModelTextEmbedding3Small)
		}
		return NewOpenAIEmbedder(key, "", OpenAIModel(model)), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
