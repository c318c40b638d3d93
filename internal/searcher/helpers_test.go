package searcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/recipesearch/internal/audit"
	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/internal/oracle"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

type fixture struct {
	name, description string
	embed             bool
}

// kitchen holds three egg dishes, one of which names meat in both fields,
// and one unrelated dish.
var kitchen = []fixture{
	{"Rolled Egg Omelette", "Sweet rolled egg with bright yellow layers", true},
	{"Egg Custard Cup", "Steamed egg custard with colorful vegetables", true},
	{"Meat and Egg Bowl", "Simmered meat and egg over rice", true},
	{"Grilled Fish", "Salted fish grilled over charcoal", true},
}

// setupSearcher seeds an in-memory store, embeds the fixtures with the
// local provider and returns a searcher over it.
func setupSearcher(t *testing.T, items []fixture, opts ...Option) (*Searcher, *storage.SQLStorage, []int64) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb := embedder.NewLocalProvider(256, embedder.NewCache(100))

	ids := make([]int64, len(items))
	for i, it := range items {
		r := &storage.Recipe{Name: it.name, Description: it.description}
		require.NoError(t, store.UpsertRecipe(ctx, r))
		ids[i] = r.ID
		if !it.embed {
			continue
		}
		text := it.name + " " + it.description
		e, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		require.NoError(t, err)
		require.NoError(t, store.UpsertEmbedding(ctx, &storage.Embedding{
			RecipeID:     r.ID,
			CombinedText: text,
			Vector:       e.Vector,
			Dimension:    e.Dimension,
			Provider:     e.Provider,
			Model:        e.Model,
		}))
	}

	return NewSearcher(store, emb, opts...), store, ids
}

func mustCondition(t *testing.T, p types.ConditionParams) types.SearchCondition {
	t.Helper()
	cond, err := types.NewSearchCondition(p)
	require.NoError(t, err)
	return cond
}

// eggScenario is the canonical cascade query over kitchen.
func eggScenario() types.ConditionParams {
	return types.ConditionParams{
		RequiredKeywords: []string{"egg"},
		ExcludedKeywords: []string{"meat"},
		SemanticQuery:    "colorful egg dish",
		FulltextWeight:   0.4,
		VectorWeight:     0.6,
		Mode:             types.ModeCascade,
		MaxResults:       15,
	}
}

func resultIDs(results []types.SearchResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ItemID
	}
	return ids
}

// mockEmbedder implements the Embedder interface for testing
type mockEmbedder struct {
	generateFunc func(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error)
	calls        int
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &embedder.Embedding{Vector: []float32{1, 0, 0}, Dimension: 3, Provider: "mock", Model: "mock-model"}, nil
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	out := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: out, Provider: "mock", Model: "mock-model"}, nil
}

func (m *mockEmbedder) Dimension() int   { return 3 }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "mock-model" }
func (m *mockEmbedder) Close() error     { return nil }

// fakeSession is a scripted oracle.
type fakeSession struct {
	filterFunc   func(ctx context.Context) ([]oracle.Candidate, error)
	rankFunc     func(ctx context.Context, ids []int64) ([]oracle.Candidate, error)
	combinedFunc func(ctx context.Context, req oracle.CombinedRequest) ([]oracle.Candidate, int, error)
	closed       atomic.Bool
}

func (f *fakeSession) FilterByText(ctx context.Context, _, _ []oracle.KeywordPredicate, _ int) ([]oracle.Candidate, error) {
	if f.filterFunc != nil {
		return f.filterFunc(ctx)
	}
	return []oracle.Candidate{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, nil
}

func (f *fakeSession) RankByVector(ctx context.Context, ids []int64, _ []float32) ([]oracle.Candidate, error) {
	if f.rankFunc != nil {
		return f.rankFunc(ctx, ids)
	}
	out := make([]oracle.Candidate, len(ids))
	for i, id := range ids {
		out[i] = oracle.Candidate{ID: id, VectorScore: 0.5}
	}
	return out, nil
}

func (f *fakeSession) CombinedQuery(ctx context.Context, req oracle.CombinedRequest) ([]oracle.Candidate, int, error) {
	if f.combinedFunc != nil {
		return f.combinedFunc(ctx, req)
	}
	return nil, 0, nil
}

func (f *fakeSession) Neighbors(context.Context, int64, int) ([]oracle.Candidate, error) {
	return nil, nil
}

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeProvider hands out one scripted session.
type fakeProvider struct {
	sess *fakeSession
	err  error
}

func (p *fakeProvider) Session(context.Context) (storage.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.sess, nil
}

// auditSpy collects recorded entries.
type auditSpy struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *auditSpy) Record(e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *auditSpy) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
