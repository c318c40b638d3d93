package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/recipesearch/pkg/types"
)

func TestSuggestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		partial  string
		validate func(t *testing.T, got []string)
	}{
		{
			name:    "substring match",
			partial: "ri",
			validate: func(t *testing.T, got []string) {
				assert.Equal(t, []string{"rice", "shrimp", "grilled", "fried", "stir-fried", "spring"}, got)
			},
		},
		{
			name:    "case insensitive",
			partial: "SOY",
			validate: func(t *testing.T, got []string) {
				assert.Equal(t, []string{"soy sauce"}, got)
			},
		},
		{
			name:    "japanese",
			partial: "肉",
			validate: func(t *testing.T, got []string) {
				assert.Equal(t, []string{"肉"}, got)
			},
		},
		{
			name:    "empty returns the most common",
			partial: "  ",
			validate: func(t *testing.T, got []string) {
				assert.Len(t, got, 10)
				assert.Equal(t, "egg", got[0])
			},
		},
		{
			name:    "no match falls back",
			partial: "xyzzy",
			validate: func(t *testing.T, got []string) {
				assert.Equal(t, commonKeywords[:10], got)
			},
		},
		{
			name:    "capped at ten",
			partial: "e",
			validate: func(t *testing.T, got []string) {
				assert.Len(t, got, 10)
				for _, kw := range got {
					assert.Contains(t, kw, "e")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, SuggestKeywords(tt.partial))
		})
	}
}

func TestAnalyzeQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		required   []string
		excluded   []string
		mode       types.SearchMode
		complexity string
		confidence float64
	}{
		{
			name:       "nothing recognized",
			query:      "something nice for a rainy day",
			required:   []string{},
			excluded:   []string{},
			mode:       types.ModeVectorOnly,
			complexity: "simple",
			confidence: 0,
		},
		{
			name:       "single ingredient",
			query:      "Colorful egg dish",
			required:   []string{"egg"},
			excluded:   []string{},
			mode:       types.ModeCascade,
			complexity: "simple",
			confidence: 0.2,
		},
		{
			name:       "negated ingredient",
			query:      "egg dish without meat",
			required:   []string{"egg"},
			excluded:   []string{"meat"},
			mode:       types.ModeCascade,
			complexity: "moderate",
			confidence: 0.4,
		},
		{
			name:       "negation reaches over a list",
			query:      "steamed tofu with no fish or pork",
			required:   []string{"tofu", "steamed"},
			excluded:   []string{"fish", "pork"},
			mode:       types.ModeCascade,
			complexity: "complex",
			confidence: 0.8,
		},
		{
			name:       "plural and word boundary",
			query:      "eggs, not eggplant",
			required:   []string{"egg"},
			excluded:   []string{},
			mode:       types.ModeCascade,
			complexity: "simple",
			confidence: 0.2,
		},
		{
			name:       "japanese suffix negation",
			query:      "肉抜きの野菜料理",
			required:   []string{"野菜"},
			excluded:   []string{"肉"},
			mode:       types.ModeCascade,
			complexity: "moderate",
			confidence: 0.4,
		},
		{
			name:       "confidence is capped",
			query:      "grilled fish, rice, miso soup and tofu with seaweed",
			required:   []string{"rice", "fish", "tofu", "seaweed", "miso", "grilled"},
			excluded:   []string{},
			mode:       types.ModeCascade,
			complexity: "complex",
			confidence: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeQuery(tt.query)
			assert.Equal(t, tt.query, got.OriginalQuery)
			assert.ElementsMatch(t, tt.required, got.RequiredKeywords)
			assert.ElementsMatch(t, tt.excluded, got.ExcludedKeywords)
			assert.Equal(t, tt.mode, got.SuggestedMode)
			assert.Equal(t, tt.complexity, got.Complexity)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.query, got.SemanticQuery)
		})
	}
}
