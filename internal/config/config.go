// Package config provides configuration loading and structs for recipesearch.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/pkg/types"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables overlaid by ApplyEnv.
const (
	EnvDBPath      = "RECIPESEARCH_DB_PATH"
	EnvPostgresDSN = "RECIPESEARCH_POSTGRES_DSN"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Audit     AuditConfig     `yaml:"audit"`
	Server    ServerConfig    `yaml:"server"`
	Loader    LoaderConfig    `yaml:"loader"`
}

// StorageConfig selects and locates the recipe store.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
	PostgresDSN  string `yaml:"postgres_dsn,omitempty"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Dimensions int           `yaml:"dimensions,omitempty"`
	BatchSize  int           `yaml:"batch_size"`
	CacheSize  int           `yaml:"cache_size"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SearchConfig holds condition defaults and execution limits.
type SearchConfig struct {
	DefaultMode       string        `yaml:"default_mode"`
	RequiredThreshold float64       `yaml:"required_threshold"`
	ExcludedThreshold float64       `yaml:"excluded_threshold"`
	FulltextWeight    float64       `yaml:"fulltext_weight"`
	VectorWeight      float64       `yaml:"vector_weight"`
	MaxResults        int           `yaml:"max_results"`
	CandidateLimit    int           `yaml:"candidate_limit"`
	Timeout           time.Duration `yaml:"timeout"`
}

// AuditConfig controls the vector query log.
type AuditConfig struct {
	Enabled    *bool `yaml:"enabled"`
	BufferSize int   `yaml:"buffer_size"`
}

// EnabledOrDefault returns whether auditing is on; defaults to true when unset.
func (a *AuditConfig) EnabledOrDefault() bool {
	if a.Enabled != nil {
		return *a.Enabled
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoaderConfig holds bulk import settings.
type LoaderConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Default returns a configuration with every default applied and the
// environment overlaid.
func Default() *Config {
	cfg := &Config{}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, overlays the environment,
// applies defaults and expands relative paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	if cfg.Storage.DatabasePath != ":memory:" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, filepath.Dir(path))
	}
	return &cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.recipesearch/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".recipesearch", "config.yaml")
}

// ApplyEnv overlays environment variables on cfg. Set variables win over
// file values; API keys only fill an empty key for the matching provider.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Storage.PostgresDSN = v
		cfg.Storage.Driver = DriverPostgres
	}
	if v := os.Getenv(embedder.EnvProvider); v != "" {
		cfg.Embedding.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(embedder.EnvModel); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv(embedder.EnvBaseURL); v != "" {
		cfg.Embedding.BaseURL = v
	}

	if cfg.Embedding.APIKey == "" {
		provider := cfg.Embedding.Provider
		if provider == "" {
			provider = embedder.DetectProvider()
		}
		switch provider {
		case embedder.ProviderJina:
			cfg.Embedding.APIKey = os.Getenv(embedder.EnvJinaAPIKey)
		case embedder.ProviderOpenAI, embedder.ProviderCompat:
			cfg.Embedding.APIKey = os.Getenv(embedder.EnvOpenAIAPIKey)
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DatabasePath == "" {
			errs = append(errs, errors.New("storage.database_path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Embedding.Provider {
	case embedder.ProviderOpenAI, embedder.ProviderJina, embedder.ProviderLocal:
	case embedder.ProviderCompat:
		if c.Embedding.BaseURL == "" {
			errs = append(errs, errors.New("embedding.base_url is required for the compat provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}

	if _, err := types.ParseMode(c.Search.DefaultMode); err != nil {
		errs = append(errs, fmt.Errorf("search.default_mode: %w", err))
	}
	if _, err := types.NewSearchCondition(c.Search.ConditionParams()); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if c.Search.CandidateLimit <= 0 {
		errs = append(errs, errors.New("search.candidate_limit must be positive"))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("search.timeout must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Loader.Workers <= 0 || c.Loader.BatchSize <= 0 {
		errs = append(errs, errors.New("loader.workers and loader.batch_size must be positive"))
	}

	return errors.Join(errs...)
}

// ConditionParams returns the configured condition defaults.
func (s SearchConfig) ConditionParams() types.ConditionParams {
	mode, _ := types.ParseMode(s.DefaultMode)
	return types.ConditionParams{
		RequiredThreshold: s.RequiredThreshold,
		ExcludedThreshold: s.ExcludedThreshold,
		FulltextWeight:    s.FulltextWeight,
		VectorWeight:      s.VectorWeight,
		Mode:              mode,
		MaxResults:        s.MaxResults,
	}
}

// EmbedderConfig converts the section to the embedder factory's config.
func (e EmbeddingConfig) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:   e.Provider,
		APIKey:     e.APIKey,
		Model:      e.Model,
		BaseURL:    e.BaseURL,
		Dimensions: e.Dimensions,
		BatchSize:  e.BatchSize,
		CacheSize:  e.CacheSize,
		MaxRetries: e.MaxRetries,
		Timeout:    e.Timeout,
	}
}

// ResolvedDimensions returns the configured dimension or the provider's
// default one.
func (e EmbeddingConfig) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	switch e.Provider {
	case embedder.ProviderJina:
		return embedder.JinaDimension
	case embedder.ProviderLocal:
		return embedder.LocalDimension
	default:
		return embedder.OpenAIDimension
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		path = path[2:]
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
