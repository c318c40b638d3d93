package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompatProvider embeds through any OpenAI-compatible server (vLLM, Ollama,
// LM Studio, Azure gateways) using langchaingo.
type CompatProvider struct {
	embedder  embeddings.Embedder
	model     string
	dimension int
	batchSize int
	retry     RetryConfig
	cache     *Cache
}

// NewCompatProvider builds a provider for cfg.BaseURL. Servers that need no
// credentials get the placeholder token "none".
func NewCompatProvider(cfg Config, cache *Cache) (*CompatProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required for the %s provider", ErrNoProviderEnabled, ProviderCompat)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai-compatible client: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	emb, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return newCompat(emb, model, cfg.Dimensions, batchSize, cfg.retryConfig(), cache), nil
}

func newCompat(emb embeddings.Embedder, model string, dim, batchSize int, retry RetryConfig, cache *Cache) *CompatProvider {
	if dim <= 0 {
		dim = OpenAIDimension
	}
	return &CompatProvider{
		embedder:  emb,
		model:     model,
		dimension: dim,
		batchSize: batchSize,
		retry:     retry,
		cache:     cache,
	}
}

func (c *CompatProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return generateOne(ctx, c, req)
}

func (c *CompatProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	out, err := cachedBatch(ctx, c.cache, ProviderCompat, c.model, c.batchSize, req.Texts,
		func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors, err := retryWithBackoff(ctx, c.retry, func() ([][]float32, error) {
				return c.embedder.EmbedDocuments(ctx, texts)
			})
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
			}
			return vectors, nil
		})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{Embeddings: out, Provider: ProviderCompat, Model: c.model}, nil
}

func (c *CompatProvider) Dimension() int   { return c.dimension }
func (c *CompatProvider) Provider() string { return ProviderCompat }
func (c *CompatProvider) Model() string    { return c.model }
func (c *CompatProvider) Close() error     { return nil }
