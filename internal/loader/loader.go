package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/internal/storage"
)

// ErrLoadInProgress is returned when another load holds the loader.
var ErrLoadInProgress = errors.New("a load is already in progress")

// Store is the subset of storage.Storage the loader writes through.
type Store interface {
	UpsertRecipe(ctx context.Context, recipe *storage.Recipe) error
	UpsertEmbedding(ctx context.Context, embedding *storage.Embedding) error
	GetEmbedding(ctx context.Context, recipeID int64) (*storage.Embedding, error)
}

// RecipeInput is one entry of a recipe JSON file.
type RecipeInput struct {
	ID           int64    `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Tips         string   `json:"tips,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Statistics contains statistics about a load
type Statistics struct {
	RecipesLoaded     int
	EmbeddingsCreated int
	EmbeddingsSkipped int
	Failed            int
	Duration          time.Duration
	ErrorMessages     []string
}

// Loader coordinates the import pipeline: upsert -> embed -> store
type Loader struct {
	store     Store
	embedder  embedder.Embedder
	workers   int
	batchSize int
	logger    *zap.Logger
	lock      Lock
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers sets the embedding pool size. Default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithBatchSize sets how many recipes are embedded per provider call.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader writing to store and embedding with emb.
func New(store Store, emb embedder.Embedder, opts ...Option) *Loader {
	l := &Loader{
		store:     store,
		embedder:  emb,
		workers:   runtime.NumCPU(),
		batchSize: embedder.DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ReadRecipes decodes a JSON array of recipes.
func ReadRecipes(r io.Reader) ([]RecipeInput, error) {
	var recipes []RecipeInput
	if err := json.NewDecoder(r).Decode(&recipes); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}
	return recipes, nil
}

// LoadFile imports every recipe in the JSON file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Statistics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipe file: %w", err)
	}
	defer func() { _ = f.Close() }()

	recipes, err := ReadRecipes(f)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, recipes)
}

// Load upserts recipes, then embeds their combined text in batches on a
// bounded worker pool. A failing recipe or batch is counted and recorded
// in ErrorMessages; the rest of the load continues.
func (l *Loader) Load(ctx context.Context, inputs []RecipeInput) (*Statistics, error) {
	if !l.lock.TryAcquire() {
		return nil, ErrLoadInProgress
	}
	defer l.lock.Release()

	start := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	pending := make([]pendingEmbedding, 0, len(inputs))
	for i := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := &inputs[i]
		recipe := in.toRecipe()
		if err := l.store.UpsertRecipe(ctx, recipe); err != nil {
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", label(in, i), err))
			continue
		}
		stats.RecipesLoaded++

		text := CombinedText(recipe)
		if l.unchanged(ctx, recipe.ID, text) {
			stats.EmbeddingsSkipped++
			continue
		}
		pending = append(pending, pendingEmbedding{recipeID: recipe.ID, text: text})
	}

	created, err := l.embedAll(ctx, pending, stats)
	if err != nil {
		return nil, err
	}
	stats.EmbeddingsCreated = created
	stats.Duration = time.Since(start)

	l.logger.Info("recipes loaded",
		zap.Int("recipes", stats.RecipesLoaded),
		zap.Int("embeddings", stats.EmbeddingsCreated),
		zap.Int("skipped", stats.EmbeddingsSkipped),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", stats.Duration))
	return stats, nil
}

type pendingEmbedding struct {
	recipeID int64
	text     string
}

// unchanged reports whether the stored embedding already covers text with
// the current model.
func (l *Loader) unchanged(ctx context.Context, recipeID int64, text string) bool {
	existing, err := l.store.GetEmbedding(ctx, recipeID)
	if err != nil {
		return false
	}
	return existing.CombinedText == text && existing.Model == l.embedder.Model()
}

func (l *Loader) embedAll(ctx context.Context, pending []pendingEmbedding, stats *Statistics) (int, error) {
	if len(pending) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return 0, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		created int32
		wg      sync.WaitGroup
		mu      sync.Mutex // protects stats
	)
	fail := func(n int, msg string) {
		mu.Lock()
		stats.Failed += n
		stats.ErrorMessages = append(stats.ErrorMessages, msg)
		mu.Unlock()
	}

	for i := 0; i < len(pending); i += l.batchSize {
		end := min(i+l.batchSize, len(pending))
		batch := pending[i:end]

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			n, err := l.embedBatch(ctx, batch)
			atomic.AddInt32(&created, int32(n))
			if err != nil {
				fail(len(batch)-n, fmt.Sprintf("batch %d-%d: %v", batch[0].recipeID, batch[len(batch)-1].recipeID, err))
			}
		})
		if err != nil {
			wg.Done()
			fail(len(batch), fmt.Sprintf("batch %d-%d: %v", batch[0].recipeID, batch[len(batch)-1].recipeID, err))
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return int(created), err
	}
	return int(created), nil
}

// embedBatch embeds one batch and stores the vectors, returning how many
// were stored.
func (l *Loader) embedBatch(ctx context.Context, batch []pendingEmbedding) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.text
	}
	resp, err := l.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return 0, err
	}
	if len(resp.Embeddings) != len(batch) {
		return 0, fmt.Errorf("provider returned %d embeddings for %d texts", len(resp.Embeddings), len(batch))
	}

	stored := 0
	for i, p := range batch {
		e := resp.Embeddings[i]
		err := l.store.UpsertEmbedding(ctx, &storage.Embedding{
			RecipeID:     p.recipeID,
			CombinedText: p.text,
			Vector:       e.Vector,
			Dimension:    e.Dimension,
			Provider:     e.Provider,
			Model:        e.Model,
		})
		if err != nil {
			return stored, fmt.Errorf("recipe %d: %w", p.recipeID, err)
		}
		stored++
	}
	return stored, nil
}

func (in *RecipeInput) toRecipe() *storage.Recipe {
	return &storage.Recipe{
		ID:               in.ID,
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		IngredientsText:  joinNonEmpty(in.Ingredients, ", "),
		InstructionsText: joinNonEmpty(in.Instructions, " "),
		Tips:             strings.TrimSpace(in.Tips),
		URL:              in.URL,
	}
}

// CombinedText builds the text a recipe's embedding is generated from.
func CombinedText(r *storage.Recipe) string {
	parts := []string{"Recipe: " + r.Name}
	if r.Description != "" {
		parts = append(parts, "Description: "+r.Description)
	}
	if r.IngredientsText != "" {
		parts = append(parts, "Ingredients: "+r.IngredientsText)
	}
	if r.InstructionsText != "" {
		parts = append(parts, "Steps: "+r.InstructionsText)
	}
	if r.Tips != "" {
		parts = append(parts, "Tips: "+r.Tips)
	}
	return strings.Join(parts, ". ")
}

func joinNonEmpty(items []string, sep string) string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}

func label(in *RecipeInput, index int) string {
	if name := strings.TrimSpace(in.Name); name != "" {
		return name
	}
	return fmt.Sprintf("recipe #%d", index)
}
