package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalProvider_Metadata(t *testing.T) {
	p := NewLocalProvider(0, nil)
	assert.Equal(t, LocalDimension, p.Dimension())
	assert.Equal(t, ProviderLocal, p.Provider())
	assert.Equal(t, "feature-hash-384", p.Model())
	assert.NoError(t, p.Close())
}

func TestLocalProvider_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalProvider(64, nil).GenerateEmbedding(ctx, EmbeddingRequest{Text: "Egg Fried Rice"})
	require.NoError(t, err)
	b, err := NewLocalProvider(64, nil).GenerateEmbedding(ctx, EmbeddingRequest{Text: "egg fried rice"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector, "case must not matter")
	assert.Len(t, a.Vector, 64)
	assert.InDelta(t, 1.0, cosine(a.Vector, a.Vector), 1e-5)
	for _, v := range a.Vector {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}

func TestLocalProvider_SharedWordsAreCloser(t *testing.T) {
	p := NewLocalProvider(256, nil)
	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"colorful egg dish", "rolled egg omelette", "grilled salted mackerel"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	query := resp.Embeddings[0].Vector
	near := cosine(query, resp.Embeddings[1].Vector)
	far := cosine(query, resp.Embeddings[2].Vector)
	assert.Greater(t, near, far)
}

func TestLocalProvider_Punctuation(t *testing.T) {
	emb, err := NewLocalProvider(16, nil).GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "!!!"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), emb.Vector[0])
}

func TestLocalProvider_EmptyText(t *testing.T) {
	_, err := NewLocalProvider(16, nil).GenerateEmbedding(context.Background(), EmbeddingRequest{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}
