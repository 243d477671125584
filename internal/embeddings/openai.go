package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const maxBatchSize = 100

// OpenAIModel is an OpenAI embedding model name.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	if m == ModelTextEmbedding3Large {
		return 3072
	}
	return 1536
}

// OpenAIEmbedder embeds product names through the OpenAI embeddings API or
// any server that speaks it.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL uses api.openai.com.
func NewOpenAIEmbedder(apiKey, baseURL string, model OpenAIModel) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (e *OpenAIEmbedder) Name() string    { return string(e.model) }
func (e *OpenAIEmbedder) Dimensions() int { return e.model.dimensions() }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		batch := texts[start:min(start+maxBatchSize, len(texts))]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding request failed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai returned %d embeddings, expected %d", len(resp.Data), len(batch))
		}
		for _, emb := range resp.Data {
			out = append(out, emb.Embedding)
		}
	}
	return out, nil
}
