package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"

	// Endpoints
	OpenAIEndpoint = "https://api.openai.com/v1/embeddings"
	JinaEndpoint   = "https://api.jina.ai/v1/embeddings"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	DefaultBatchSize = 100

	DefaultHTTPTimeout = 30 * time.Second
)

// RemoteProvider calls an embeddings endpoint that speaks the OpenAI wire
// format (OpenAI itself and Jina).
type RemoteProvider struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	sendDims   bool
	batchSize  int
	retry      RetryConfig
	httpClient *http.Client
	cache      *Cache
}

// NewOpenAIProvider creates an OpenAI embedder. A non-default dimension is
// requested from the API explicitly.
func NewOpenAIProvider(cfg Config, cache *Cache) (*RemoteProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	p := newRemote(ProviderOpenAI, OpenAIEndpoint, DefaultOpenAIModel, OpenAIDimension, cfg, cache)
	p.sendDims = cfg.Dimensions > 0 && cfg.Dimensions != OpenAIDimension
	return p, nil
}

// NewJinaProvider creates a Jina AI embedder.
func NewJinaProvider(cfg Config, cache *Cache) (*RemoteProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	return newRemote(ProviderJina, JinaEndpoint, DefaultJinaModel, JinaDimension, cfg, cache), nil
}

func newRemote(name, endpoint, model string, dim int, cfg Config, cache *Cache) *RemoteProvider {
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	if cfg.Model != "" {
		model = cfg.Model
	}
	if cfg.Dimensions > 0 {
		dim = cfg.Dimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &RemoteProvider{
		name:       name,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      model,
		dimension:  dim,
		batchSize:  cfg.BatchSize,
		retry:      cfg.retryConfig(),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

func (p *RemoteProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return generateOne(ctx, p, req)
}

func (p *RemoteProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings, err := cachedBatch(ctx, p.cache, p.name, p.model, p.batchSize, req.Texts,
		func(ctx context.Context, texts []string) ([][]float32, error) {
			vectors, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
				return p.callAPI(ctx, texts)
			})
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
			}
			return vectors, nil
		})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   p.name,
		Model:      p.model,
	}, nil
}

type embeddingsRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func (p *RemoteProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	payload := embeddingsRequest{Input: texts, Model: p.model}
	if p.sendDims {
		payload.Dimensions = p.dimension
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, newStatusError(resp, bodyBytes)
	}

	var apiResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The API may return items out of order.
	sort.Slice(apiResp.Data, func(i, j int) bool { return apiResp.Data[i].Index < apiResp.Data[j].Index })

	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (p *RemoteProvider) Dimension() int {
	return p.dimension
}

func (p *RemoteProvider) Provider() string {
	return p.name
}

func (p *RemoteProvider) Model() string {
	return p.model
}

func (p *RemoteProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
