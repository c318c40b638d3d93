package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// LocalProvider embeds offline with feature hashing: every word and every
// word trigram adds weight to a hashed bucket, and the result is scaled to
// unit length. Texts sharing vocabulary land close together, which is
// enough for development, demos and tests.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a feature-hashing embedder. dim <= 0 selects
// LocalDimension.
func NewLocalProvider(dim int, cache *Cache) *LocalProvider {
	if dim <= 0 {
		dim = LocalDimension
	}
	return &LocalProvider{
		model:     fmt.Sprintf("feature-hash-%d", dim),
		dimension: dim,
		cache:     cache,
	}
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return generateOne(ctx, l, req)
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	out, err := cachedBatch(ctx, l.cache, ProviderLocal, l.model, len(req.Texts), req.Texts,
		func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				vectors[i] = l.hashVector(text)
			}
			return vectors, nil
		})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{Embeddings: out, Provider: ProviderLocal, Model: l.model}, nil
}

func (l *LocalProvider) hashVector(text string) []float32 {
	v := make([]float32, l.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		v[l.bucket("w:"+w)] += 1
		runes := []rune(" " + w + " ")
		for i := 0; i+3 <= len(runes); i++ {
			v[l.bucket("t:"+string(runes[i:i+3]))] += 0.25
		}
	}
	if len(words) == 0 {
		// Keep the vector non-zero so cosine distance stays defined.
		v[0] = 1
	}
	return NormalizeVector(v)
}

func (l *LocalProvider) bucket(feature string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum32() % uint32(l.dimension))
}

func (l *LocalProvider) Dimension() int   { return l.dimension }
func (l *LocalProvider) Provider() string { return ProviderLocal }
func (l *LocalProvider) Model() string    { return l.model }
func (l *LocalProvider) Close() error     { return nil }
