package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/internal/storage"
)

const sampleJSON = `[
  {
    "name": "Rolled Egg Omelette",
    "description": "Sweet rolled egg",
    "ingredients": ["egg", " sugar ", ""],
    "instructions": ["Beat the eggs.", "Roll in layers."],
    "tips": "Keep the heat low."
  },
  {"name": "Grilled Fish", "description": "Salted fish", "ingredients": ["fish", "salt"]},
  {"name": "Tofu Soup", "description": "Light miso soup", "ingredients": ["tofu", "miso"]}
]`

func setupTestStore(t *testing.T) *storage.SQLStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

type failingEmbedder struct {
	*embedder.LocalProvider
	err error
}

func (f *failingEmbedder) GenerateBatch(context.Context, embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, f.err
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	emb := embedder.NewLocalProvider(64, nil)
	l := New(store, emb, WithWorkers(2), WithBatchSize(2))

	stats, err := l.LoadFile(ctx, writeFile(t, sampleJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RecipesLoaded)
	assert.Equal(t, 3, stats.EmbeddingsCreated)
	assert.Zero(t, stats.Failed)
	assert.Empty(t, stats.ErrorMessages)
	assert.Positive(t, stats.Duration)

	recipes, err := store.ListRecipes(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "egg, sugar", recipes[0].IngredientsText)
	assert.Equal(t, "Beat the eggs. Roll in layers.", recipes[0].InstructionsText)

	for _, r := range recipes {
		e, err := store.GetEmbedding(ctx, r.ID)
		require.NoError(t, err, r.Name)
		assert.Equal(t, 64, e.Dimension)
		assert.Equal(t, CombinedText(r), e.CombinedText)
		assert.Equal(t, embedder.ProviderLocal, e.Provider)
	}
}

func TestLoad_SkipsUnchangedEmbeddings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	l := New(store, embedder.NewLocalProvider(64, nil))

	inputs, err := ReadRecipes(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	_, err = l.Load(ctx, inputs)
	require.NoError(t, err)

	// Reload with ids so the same rows are updated.
	recipes, err := store.ListRecipes(ctx, 10, 0)
	require.NoError(t, err)
	for i := range inputs {
		inputs[i].ID = recipes[i].ID
	}
	inputs[2].Description = "Rich miso soup"

	stats, err := l.Load(ctx, inputs)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RecipesLoaded)
	assert.Equal(t, 2, stats.EmbeddingsSkipped)
	assert.Equal(t, 1, stats.EmbeddingsCreated)

	e, err := store.GetEmbedding(ctx, recipes[2].ID)
	require.NoError(t, err)
	assert.Contains(t, e.CombinedText, "Rich miso soup")
}

func TestLoad_RecipeFailuresContinue(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	l := New(store, embedder.NewLocalProvider(64, nil))

	stats, err := l.Load(ctx, []RecipeInput{
		{Name: "Egg Custard"},
		{Name: "   "},
		{Name: "Fish Stew"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RecipesLoaded)
	assert.Equal(t, 2, stats.EmbeddingsCreated)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "recipe #1")
}

func TestLoad_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	emb := &failingEmbedder{LocalProvider: embedder.NewLocalProvider(64, nil), err: errors.New("quota exceeded")}
	l := New(store, emb, WithBatchSize(2))

	stats, err := l.LoadFile(ctx, writeFile(t, sampleJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RecipesLoaded)
	assert.Zero(t, stats.EmbeddingsCreated)
	assert.Equal(t, 3, stats.Failed)
	require.Len(t, stats.ErrorMessages, 2)
	assert.Contains(t, stats.ErrorMessages[0], "quota exceeded")

	count, err := store.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoad_Cancelled(t *testing.T) {
	store := setupTestStore(t)
	l := New(store, embedder.NewLocalProvider(64, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, []RecipeInput{{Name: "Egg Custard"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_InProgress(t *testing.T) {
	l := New(setupTestStore(t), embedder.NewLocalProvider(64, nil))
	require.True(t, l.lock.TryAcquire())
	defer l.lock.Release()

	_, err := l.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrLoadInProgress)
}

func TestLoadFile_Errors(t *testing.T) {
	l := New(setupTestStore(t), embedder.NewLocalProvider(64, nil))

	_, err := l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = l.LoadFile(context.Background(), writeFile(t, `{"name": "not an array"}`))
	assert.ErrorContains(t, err, "failed to decode recipes")
}

func TestCombinedText(t *testing.T) {
	tests := []struct {
		name   string
		recipe storage.Recipe
		want   string
	}{
		{
			name:   "name only",
			recipe: storage.Recipe{Name: "Egg Custard"},
			want:   "Recipe: Egg Custard",
		},
		{
			name: "all fields",
			recipe: storage.Recipe{
				Name: "Egg Custard", Description: "Steamed", IngredientsText: "egg, dashi",
				InstructionsText: "Steam gently.", Tips: "Strain the eggs.",
			},
			want: "Recipe: Egg Custard. Description: Steamed. Ingredients: egg, dashi. Steps: Steam gently.. Tips: Strain the eggs.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombinedText(&tt.recipe))
		})
	}
}

func TestLock(t *testing.T) {
	var l Lock
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	l.Release()
	assert.True(t, l.TryAcquire())
}
