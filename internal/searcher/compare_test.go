package searcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/recipesearch/internal/oracle"
	"github.com/dshills/recipesearch/pkg/types"
)

func response(results int, elapsed time.Duration) *types.SearchResponse {
	return &types.SearchResponse{Results: make([]types.SearchResult, results), Elapsed: elapsed}
}

func TestDefaultRecommender(t *testing.T) {
	ms := time.Millisecond

	tests := []struct {
		name       string
		perMode    map[types.SearchMode]*types.SearchResponse
		wantMode   types.SearchMode
		wantReason string
	}{
		{
			name: "parallel keeps enough results",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeCascade:      response(10, 50*ms),
				types.ModeParallel:     response(8, 500*ms),
				types.ModeFulltextOnly: response(10, 1*ms),
				types.ModeVectorOnly:   response(10, 1*ms),
			},
			wantMode:   types.ModeParallel,
			wantReason: ReasonPrecisionAtSpeed,
		},
		{
			name: "cascade not much slower",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeCascade:      response(10, 140*ms),
				types.ModeParallel:     response(7, 100*ms),
				types.ModeFulltextOnly: response(10, 1*ms),
				types.ModeVectorOnly:   response(10, 1*ms),
			},
			wantMode:   types.ModeCascade,
			wantReason: ReasonBalanced,
		},
		{
			name: "fastest mode",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeCascade:      response(10, 300*ms),
				types.ModeParallel:     response(5, 100*ms),
				types.ModeFulltextOnly: response(10, 50*ms),
				types.ModeVectorOnly:   response(10, 80*ms),
			},
			wantMode:   types.ModeFulltextOnly,
			wantReason: ReasonFastest,
		},
		{
			name: "fastest tie goes to the earlier mode",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeCascade:      response(10, 200*ms),
				types.ModeParallel:     response(0, 100*ms),
				types.ModeFulltextOnly: response(10, 100*ms),
				types.ModeVectorOnly:   response(10, 100*ms),
			},
			wantMode:   types.ModeParallel,
			wantReason: ReasonFastest,
		},
		{
			name: "no results anywhere",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeCascade:      response(0, 10*ms),
				types.ModeParallel:     response(0, 20*ms),
				types.ModeFulltextOnly: response(0, 5*ms),
				types.ModeVectorOnly:   response(0, 5*ms),
			},
			wantMode:   types.ModeParallel,
			wantReason: ReasonPrecisionAtSpeed,
		},
		{
			name: "cascade missing",
			perMode: map[types.SearchMode]*types.SearchResponse{
				types.ModeParallel:   response(3, 20*ms),
				types.ModeVectorOnly: response(3, 10*ms),
			},
			wantMode:   types.ModeVectorOnly,
			wantReason: ReasonFastest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, reason := DefaultRecommender(tt.perMode)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestCompareModes(t *testing.T) {
	s, _, ids := setupSearcher(t, kitchen)

	cmp, err := s.CompareModes(context.Background(), mustCondition(t, eggScenario()), "")
	require.NoError(t, err)

	require.Len(t, cmp.PerMode, 4)
	for _, mode := range types.AllModes() {
		resp := cmp.PerMode[mode]
		require.NotNil(t, resp, mode)
		assert.Equal(t, mode, resp.Condition.Mode())
	}

	assert.ElementsMatch(t, []int64{ids[0], ids[1]}, resultIDs(cmp.PerMode[types.ModeCascade].Results))
	assert.Len(t, cmp.PerMode[types.ModeVectorOnly].Results, 4)

	// Parallel finds as many as cascade, so the default policy picks it.
	assert.Equal(t, types.ModeParallel, cmp.RecommendedMode)
	assert.Equal(t, ReasonPrecisionAtSpeed, cmp.Reason)
}

func TestCompareModes_CallerOverride(t *testing.T) {
	s, _, _ := setupSearcher(t, kitchen)

	cmp, err := s.CompareModes(context.Background(), mustCondition(t, eggScenario()), types.ModeVectorOnly)
	require.NoError(t, err)
	assert.Equal(t, types.ModeVectorOnly, cmp.RecommendedMode)
	assert.Equal(t, ReasonCallerOverride, cmp.Reason)

	_, err = s.CompareModes(context.Background(), mustCondition(t, eggScenario()), "fastest")
	assert.ErrorIs(t, err, types.ErrUnsupportedMode)
}

func TestCompareModes_CustomRecommender(t *testing.T) {
	var seen int
	custom := func(perMode map[types.SearchMode]*types.SearchResponse) (types.SearchMode, string) {
		seen = len(perMode)
		return types.ModeCascade, "always cascade"
	}
	s, _, _ := setupSearcher(t, kitchen, WithRecommender(custom))

	cmp, err := s.CompareModes(context.Background(), mustCondition(t, eggScenario()), "")
	require.NoError(t, err)
	assert.Equal(t, 4, seen)
	assert.Equal(t, types.ModeCascade, cmp.RecommendedMode)
	assert.Equal(t, "always cascade", cmp.Reason)
}

func TestCompareModes_FailingModeFailsComparison(t *testing.T) {
	storeDown := errors.New("connection refused")
	sess := &fakeSession{combinedFunc: func(context.Context, oracle.CombinedRequest) ([]oracle.Candidate, int, error) {
		return nil, 0, storeDown
	}}
	s := NewSearcher(&fakeProvider{sess: sess}, &mockEmbedder{})

	cmp, err := s.CompareModes(context.Background(), mustCondition(t, types.ConditionParams{
		RequiredKeywords: []string{"egg"},
	}), "")
	assert.Nil(t, cmp)
	assert.ErrorIs(t, err, types.ErrOracleUnavailable)
	assert.ErrorIs(t, err, storeDown)
}
