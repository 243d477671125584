package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// DefaultHashDimensions is the vector size of the local embedder.
const DefaultHashDimensions = 256

// HashEmbedder is an offline embedder: folded words and their character
// trigrams are hashed into a fixed-size, L2-normalized vector. Texts that
// share words or word fragments ("bobin", "bobini") end up close together.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a local embedder with dims dimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Name() string    { return "local-hash" }
func (e *HashEmbedder) Dimensions() int { return e.dims }

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, word := range strings.Fields(textnorm.Tokenize(text)) {
		e.add(vec, "w:"+word, 2)
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(vec, string(padded[i:i+3]), 1)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// chromem rejects zero vectors; an empty text points nowhere in particular.
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum32()
	idx := int(sum % uint32(e.dims))
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}
