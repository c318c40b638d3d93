package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchCondition_Weights(t *testing.T) {
	tests := []struct {
		name       string
		ft, vec    float64
		wantFT     float64
		wantVector float64
	}{
		{"already normalized", 0.4, 0.6, 0.4, 0.6},
		{"scaled up", 2, 3, 0.4, 0.6},
		{"both zero", 0, 0, 0.5, 0.5},
		{"fulltext only", 5, 0, 1, 0},
		{"vector only", 0, 0.01, 0, 1},
		{"thirds", 1, 2, 1.0 / 3, 2.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewSearchCondition(ConditionParams{FulltextWeight: tt.ft, VectorWeight: tt.vec})
			require.NoError(t, err)
			assert.InDelta(t, tt.wantFT, c.FulltextWeight(), 1e-9)
			assert.InDelta(t, tt.wantVector, c.VectorWeight(), 1e-9)
			assert.InDelta(t, 1.0, c.FulltextWeight()+c.VectorWeight(), 1e-12)
		})
	}
}

func TestNewSearchCondition_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params ConditionParams
		target error
	}{
		{"negative weight", ConditionParams{FulltextWeight: -1, VectorWeight: 1}, ErrConfiguration},
		{"NaN weight", ConditionParams{FulltextWeight: math.NaN()}, ErrConfiguration},
		{"infinite weight", ConditionParams{VectorWeight: math.Inf(1)}, ErrConfiguration},
		{"threshold above one", ConditionParams{RequiredThreshold: 1.5}, ErrConfiguration},
		{"negative threshold", ConditionParams{ExcludedThreshold: -0.2}, ErrConfiguration},
		{"too many results", ConditionParams{MaxResults: 101}, ErrConfiguration},
		{"negative results", ConditionParams{MaxResults: -3}, ErrConfiguration},
		{"unknown mode", ConditionParams{Mode: "turbo"}, ErrUnsupportedMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchCondition(tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestNewSearchCondition_Defaults(t *testing.T) {
	c, err := NewSearchCondition(ConditionParams{})
	require.NoError(t, err)

	assert.True(t, c.Valid())
	assert.Equal(t, ModeCascade, c.Mode())
	assert.Equal(t, DefaultMaxResults, c.MaxResults())
	assert.Equal(t, DefaultKeywordThreshold, c.RequiredThreshold())
	assert.Equal(t, DefaultKeywordThreshold, c.ExcludedThreshold())
	assert.False(t, c.HasSemanticQuery())
	assert.Empty(t, c.RequiredKeywords())
}

func TestNewSearchCondition_BoundaryValues(t *testing.T) {
	c, err := NewSearchCondition(ConditionParams{RequiredThreshold: 1, MaxResults: 100})
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.RequiredThreshold())
	assert.Equal(t, 100, c.MaxResults())

	c, err = NewSearchCondition(ConditionParams{MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, c.MaxResults())
}

func TestNewSearchCondition_KeywordCleanup(t *testing.T) {
	c, err := NewSearchCondition(ConditionParams{
		RequiredKeywords: []string{" egg ", "", "Egg", "tomato", "  "},
		SemanticQuery:    "  colorful egg dish  ",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"egg", "tomato"}, c.RequiredKeywords())
	assert.Equal(t, "colorful egg dish", c.SemanticQuery())
}

func TestSearchCondition_AccessorsCopy(t *testing.T) {
	c, err := NewSearchCondition(ConditionParams{RequiredKeywords: []string{"egg"}})
	require.NoError(t, err)

	kws := c.RequiredKeywords()
	kws[0] = "meat"
	assert.Equal(t, []string{"egg"}, c.RequiredKeywords())
}

func TestSearchCondition_WithMode(t *testing.T) {
	base, err := NewSearchCondition(ConditionParams{
		RequiredKeywords: []string{"egg"},
		SemanticQuery:    "colorful",
		FulltextWeight:   0.4,
		VectorWeight:     0.6,
	})
	require.NoError(t, err)

	for _, mode := range AllModes() {
		clone, err := base.WithMode(mode)
		require.NoError(t, err)
		assert.Equal(t, mode, clone.Mode())
		assert.Equal(t, base.RequiredKeywords(), clone.RequiredKeywords())
		assert.Equal(t, base.SemanticQuery(), clone.SemanticQuery())
		assert.Equal(t, base.FulltextWeight(), clone.FulltextWeight())
	}
	assert.Equal(t, ModeCascade, base.Mode())

	_, err = base.WithMode("bogus")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestSearchCondition_WithWeights(t *testing.T) {
	base, err := NewSearchCondition(ConditionParams{})
	require.NoError(t, err)

	c, err := base.WithWeights(3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, c.FulltextWeight(), 1e-9)
	assert.InDelta(t, 0.25, c.VectorWeight(), 1e-9)
	assert.Equal(t, 0.5, base.FulltextWeight())

	_, err = base.WithWeights(-1, 0)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSearchCondition_FulltextProjection(t *testing.T) {
	base, err := NewSearchCondition(ConditionParams{
		RequiredKeywords: []string{"egg"},
		SemanticQuery:    "colorful egg dish",
		FulltextWeight:   0.4,
		VectorWeight:     0.6,
		Mode:             ModeFulltextOnly,
	})
	require.NoError(t, err)

	p := base.FulltextProjection()
	assert.Equal(t, 1.0, p.FulltextWeight())
	assert.Equal(t, 0.0, p.VectorWeight())
	assert.Empty(t, p.SemanticQuery())
	assert.Equal(t, base.RequiredKeywords(), p.RequiredKeywords())
	assert.Equal(t, "colorful egg dish", base.SemanticQuery())
}

func TestParseMode(t *testing.T) {
	tests := map[string]SearchMode{
		"":              ModeCascade,
		"CASCADE":       ModeCascade,
		"parallel":      ModeParallel,
		"fulltext_only": ModeFulltextOnly,
		"VECTOR_ONLY":   ModeVectorOnly,
		" vector ":      ModeVectorOnly,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("warp")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestSearchCondition_MarshalJSON(t *testing.T) {
	c, err := NewSearchCondition(ConditionParams{
		RequiredKeywords: []string{"egg"},
		FulltextWeight:   1,
		VectorWeight:     3,
		Mode:             ModeParallel,
	})
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var back ConditionParams
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"egg"}, back.RequiredKeywords)
	assert.Equal(t, ModeParallel, back.Mode)
	assert.InDelta(t, 0.25, back.FulltextWeight, 1e-9)
}

func TestSearchError_Classification(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&SearchError{Kind: KindOracle, Mode: ModeCascade, Stage: "fulltext-filter", Err: cause})

	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.NotErrorIs(t, err, ErrEmbeddingFailure)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "fulltext-filter")
}

func TestDemoScenariosAreValid(t *testing.T) {
	for _, s := range DemoScenarios() {
		_, err := NewSearchCondition(s.Params)
		assert.NoError(t, err, s.Name)
	}

	_, ok := FindScenario("colorful-egg")
	assert.True(t, ok)
	_, ok = FindScenario("missing")
	assert.False(t, ok)
}
