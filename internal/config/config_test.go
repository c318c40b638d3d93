package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/pkg/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvDBPath, EnvPostgresDSN,
		embedder.EnvProvider, embedder.EnvModel, embedder.EnvBaseURL,
		embedder.EnvOpenAIAPIKey, embedder.EnvJinaAPIKey,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  driver: sqlite
  database_path: ./data/recipes.db
embedding:
  provider: local
  dimensions: 128
search:
  default_mode: parallel
  max_results: 50
  timeout: 5s
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if want := filepath.Join(dir, "data", "recipes.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if cfg.Embedding.Provider != embedder.ProviderLocal {
		t.Errorf("Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.ResolvedDimensions() != 128 {
		t.Errorf("ResolvedDimensions = %d, want 128", cfg.Embedding.ResolvedDimensions())
	}
	if cfg.Search.DefaultMode != "parallel" || cfg.Search.MaxResults != 50 {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if cfg.Search.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Search.Timeout)
	}
	// Unset fields take defaults.
	if cfg.Search.RequiredThreshold != types.DefaultKeywordThreshold {
		t.Errorf("RequiredThreshold = %v", cfg.Search.RequiredThreshold)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 9000 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "localhost:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Driver = %q", cfg.Storage.Driver)
	}
	if cfg.Embedding.Provider != embedder.ProviderLocal {
		t.Errorf("Provider = %q, want local without API keys", cfg.Embedding.Provider)
	}
	if cfg.Search.MaxResults != types.DefaultMaxResults {
		t.Errorf("MaxResults = %d", cfg.Search.MaxResults)
	}
	if cfg.Search.FulltextWeight != types.DefaultWeight || cfg.Search.VectorWeight != types.DefaultWeight {
		t.Errorf("weights = %v/%v", cfg.Search.FulltextWeight, cfg.Search.VectorWeight)
	}
	if !cfg.Audit.EnabledOrDefault() {
		t.Error("audit should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(EnvPostgresDSN, "postgres://localhost/recipes")
	t.Setenv(embedder.EnvProvider, "JINA")
	t.Setenv(embedder.EnvJinaAPIKey, "jina-key")
	t.Setenv(embedder.EnvOpenAIAPIKey, "openai-key")

	cfg := &Config{}
	ApplyEnv(cfg)

	if cfg.Storage.DatabasePath != "/tmp/env.db" {
		t.Errorf("DatabasePath = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.Driver != DriverPostgres || cfg.Storage.PostgresDSN == "" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Embedding.Provider != embedder.ProviderJina {
		t.Errorf("Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.APIKey != "jina-key" {
		t.Errorf("APIKey = %q, want the jina key", cfg.Embedding.APIKey)
	}
}

func TestApplyEnv_KeepsFileAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(embedder.EnvOpenAIAPIKey, "env-key")

	cfg := &Config{Embedding: EmbeddingConfig{Provider: embedder.ProviderOpenAI, APIKey: "file-key"}}
	ApplyEnv(cfg)
	if cfg.Embedding.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.Embedding.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "postgres_dsn"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"compat without url", func(c *Config) { c.Embedding.Provider = embedder.ProviderCompat }, "base_url"},
		{"bad mode", func(c *Config) { c.Search.DefaultMode = "fuzzy" }, "default_mode"},
		{"threshold out of range", func(c *Config) { c.Search.RequiredThreshold = 1.5 }, "search"},
		{"max results over limit", func(c *Config) { c.Search.MaxResults = 500 }, "search"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no workers", func(c *Config) { c.Loader.Workers = -1 }, "loader"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Storage.DatabasePath = "/var/lib/recipes.db"
	off := false
	cfg.Audit.Enabled = &off

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Storage.DatabasePath != "/var/lib/recipes.db" {
		t.Errorf("DatabasePath = %q", loaded.Storage.DatabasePath)
	}
	if loaded.Audit.EnabledOrDefault() {
		t.Error("audit should stay disabled")
	}
	if loaded.Search.Timeout != cfg.Search.Timeout {
		t.Errorf("Timeout = %v, want %v", loaded.Search.Timeout, cfg.Search.Timeout)
	}
}

func TestConditionParams(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Search.DefaultMode = "hybrid"

	cond, err := types.NewSearchCondition(cfg.Search.ConditionParams())
	if err != nil {
		t.Fatal(err)
	}
	if cond.Mode() != types.ModeParallel {
		t.Errorf("Mode = %q", cond.Mode())
	}
	if cond.MaxResults() != types.DefaultMaxResults {
		t.Errorf("MaxResults = %d", cond.MaxResults())
	}
}

func TestEmbedderConfig(t *testing.T) {
	e := EmbeddingConfig{Provider: "jina", APIKey: "k", BatchSize: 10, Timeout: time.Second}
	ec := e.EmbedderConfig()
	if ec.Provider != "jina" || ec.APIKey != "k" || ec.BatchSize != 10 || ec.Timeout != time.Second {
		t.Errorf("EmbedderConfig = %+v", ec)
	}
	if e.ResolvedDimensions() != embedder.JinaDimension {
		t.Errorf("ResolvedDimensions = %d", e.ResolvedDimensions())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/recipes.db", "/abs/recipes.db"},
		{"./recipes.db", "/etc/rs/recipes.db"},
		{"~/recipes.db", filepath.Join(home, "recipes.db")},
		{"data/recipes.db", filepath.Join(home, "data/recipes.db")},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in, "/etc/rs"); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
