package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables
const (
	EnvProvider     = "RECIPESEARCH_EMBEDDING_PROVIDER"
	EnvBaseURL      = "RECIPESEARCH_EMBEDDING_BASE_URL"
	EnvModel        = "EMBEDDING_MODEL"
	EnvDimensions   = "EMBEDDING_DIMENSIONS"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
	BatchSize  int
	CacheSize  int
	MaxRetries int
	Timeout    time.Duration
}

func (c Config) retryConfig() RetryConfig {
	rc := DefaultRetryConfig()
	if c.MaxRetries > 0 {
		rc.MaxRetries = c.MaxRetries
	}
	return rc
}

// New creates an embedder with explicit configuration. The caller owns the
// result and must Close it.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg, cache)
	case ProviderJina:
		return NewJinaProvider(cfg, cache)
	case ProviderCompat:
		return NewCompatProvider(cfg, cache)
	case ProviderLocal:
		return NewLocalProvider(cfg.Dimensions, cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// ConfigFromEnv fills a Config from the environment.
// Priority:
// 1. RECIPESEARCH_EMBEDDING_PROVIDER (openai, jina, compat, local)
// 2. Check for API keys: OPENAI_API_KEY, JINA_API_KEY
// 3. Default to local if no API keys found
func ConfigFromEnv() Config {
	cfg := Config{
		Provider:  DetectProvider(),
		Model:     os.Getenv(EnvModel),
		BaseURL:   os.Getenv(EnvBaseURL),
		CacheSize: 10000,
	}
	if n, err := strconv.Atoi(os.Getenv(EnvDimensions)); err == nil {
		cfg.Dimensions = n
	}
	switch cfg.Provider {
	case ProviderJina:
		cfg.APIKey = os.Getenv(EnvJinaAPIKey)
	default:
		cfg.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	return cfg
}

// NewFromEnv creates an embedder based on environment variables
func NewFromEnv() (Embedder, error) {
	return New(ConfigFromEnv())
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	return ProviderLocal
}
