package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLangchain struct {
	calls int
	fail  int
}

func (f *fakeLangchain) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("connection refused")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeLangchain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func testRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func TestNewCompatProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewCompatProvider(Config{}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNewCompatProvider(t *testing.T) {
	p, err := NewCompatProvider(Config{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text", Dimensions: 768}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderCompat, p.Provider())
	assert.Equal(t, "nomic-embed-text", p.Model())
	assert.Equal(t, 768, p.Dimension())
	assert.NoError(t, p.Close())
}

func TestCompatProvider_GenerateBatch(t *testing.T) {
	fake := &fakeLangchain{}
	p := newCompat(fake, "m", 2, 2, testRetry(), NewCache(10))

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"a", "bb", "ccc"}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, float32(3), resp.Embeddings[2].Vector[0])
	assert.Equal(t, 2, fake.calls, "three texts in batches of two")

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "bb"})
	require.NoError(t, err)
	assert.Equal(t, float32(2), emb.Vector[0])
	assert.Equal(t, 2, fake.calls)
}

func TestCompatProvider_Retries(t *testing.T) {
	fake := &fakeLangchain{fail: 2}
	p := newCompat(fake, "m", 2, 10, testRetry(), nil)

	_, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "egg"})
	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls)

	failing := &fakeLangchain{fail: 10}
	p = newCompat(failing, "m", 2, 10, testRetry(), nil)
	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "egg"})
	assert.ErrorIs(t, err, ErrProviderFailed)
}
