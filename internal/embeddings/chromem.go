package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ToChromemFunc adapts an Embedder to the single-text function chromem-go
// calls for documents and queries.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("%s returned no embedding", e.Name())
		}
		return results[0], nil
	}
}
