package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/pkg/types"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = defaultDatabasePath()
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 10
	}

	// With no explicit provider, the available API keys decide.
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = embedder.DetectProvider()
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = embedder.DefaultBatchSize
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = embedder.DefaultMaxRetries
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = embedder.DefaultHTTPTimeout
	}

	if cfg.Search.DefaultMode == "" {
		cfg.Search.DefaultMode = string(types.ModeCascade)
	}
	if cfg.Search.RequiredThreshold == 0 {
		cfg.Search.RequiredThreshold = types.DefaultKeywordThreshold
	}
	if cfg.Search.ExcludedThreshold == 0 {
		cfg.Search.ExcludedThreshold = types.DefaultKeywordThreshold
	}
	if cfg.Search.FulltextWeight == 0 && cfg.Search.VectorWeight == 0 {
		cfg.Search.FulltextWeight = types.DefaultWeight
		cfg.Search.VectorWeight = types.DefaultWeight
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = types.DefaultMaxResults
	}
	if cfg.Search.CandidateLimit == 0 {
		cfg.Search.CandidateLimit = 1000
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30 * time.Second
	}

	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = 256
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Loader.Workers == 0 {
		cfg.Loader.Workers = 4
	}
	if cfg.Loader.BatchSize == 0 {
		cfg.Loader.BatchSize = embedder.DefaultBatchSize
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "recipes.db"
	}
	return filepath.Join(home, ".recipesearch", "recipes.db")
}
