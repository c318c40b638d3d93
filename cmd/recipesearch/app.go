package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/audit"
	"github.com/dshills/recipesearch/internal/config"
	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/internal/logging"
	"github.com/dshills/recipesearch/internal/searcher"
	"github.com/dshills/recipesearch/internal/storage"
)

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.Storage
	embedder embedder.Embedder
	recorder *audit.Recorder
	searcher *searcher.Searcher
}

// loadConfig resolves the configuration: the file viper found (if any),
// then environment overrides, then command-line flags.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var cfg *config.Config
	if path := v.ConfigFileUsed(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if v.GetBool("debug") {
		cfg.Debug = true
	}
	if db := v.GetString("db"); db != "" {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.DatabasePath = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp wires storage, the embedder, the audit recorder and the searcher.
// quiet commands only log warnings so their output stays readable.
func newApp(ctx context.Context, v *viper.Viper, quiet bool) (*app, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	newLogger := logging.New
	if quiet {
		newLogger = logging.NewQuiet
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	emb, err := embedder.New(cfg.Embedding.EmbedderConfig())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store, embedder: emb}

	opts := []searcher.Option{
		searcher.WithLogger(logger.Named("searcher")),
		searcher.WithTimeout(cfg.Search.Timeout),
		searcher.WithCandidateLimit(cfg.Search.CandidateLimit),
	}
	if cfg.Audit.EnabledOrDefault() {
		a.recorder = audit.NewRecorder(store,
			audit.WithLogger(logger.Named("audit")),
			audit.WithBufferSize(cfg.Audit.BufferSize))
		opts = append(opts, searcher.WithAudit(a.recorder))
	}
	a.searcher = searcher.NewSearcher(store, emb, opts...)

	logger.Debug("application ready",
		zap.String("backend", cfg.Storage.Driver),
		zap.String("build_mode", storage.BuildMode),
		zap.String("provider", emb.Provider()),
		zap.String("model", emb.Model()),
		zap.Bool("audit", a.recorder != nil))
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := storage.NewPostgresStorage(ctx, storage.PostgresOptions{
			DSN:          cfg.Storage.PostgresDSN,
			Dimensions:   cfg.Embedding.ResolvedDimensions(),
			MaxOpenConns: cfg.Storage.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, nil
	default:
		path := cfg.Storage.DatabasePath
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		store, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, nil
	}
}

// Close drains the audit log before the store goes away.
func (a *app) Close() {
	if a.recorder != nil {
		_ = a.recorder.Close()
	}
	_ = a.embedder.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Debug("store close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
