package embeddings

import (
	"context"
	"math"
)

// Embedder defines the interface for turning text into fixed-length vectors.
// Implementations must return one vector per input text and keep the
// dimensionality stable across calls within a session.
type Embedder interface {
	// Embed generates embeddings for one or more texts in a single batch.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vecs[0], nil
}

// Dot returns the dot product of two vectors, accumulated in float64.
// Vectors of unequal length are compared over the shorter prefix.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of two vectors, or 0 when either
// has zero norm.
func Cosine(a, b []float32) float64 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
}
