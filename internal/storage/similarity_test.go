package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/recipesearch/internal/oracle"
)

func TestWordSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		needle   string
		haystack string
		validate func(t *testing.T, got float64)
	}{
		{"whole word", "egg", "Simmered meat with egg over rice", func(t *testing.T, got float64) {
			assert.Equal(t, 1.0, got)
		}},
		{"phrase", "green onion", "Tofu with green onion and ginger", func(t *testing.T, got float64) {
			assert.Equal(t, 1.0, got)
		}},
		{"case insensitive", "egg", "eGG roll", func(t *testing.T, got float64) {
			assert.Equal(t, 1.0, got)
		}},
		{"disjoint", "egg", "Salted fish grilled over charcoal", func(t *testing.T, got float64) {
			assert.Equal(t, 0.0, got)
		}},
		{"empty haystack", "egg", "", func(t *testing.T, got float64) {
			assert.Equal(t, 0.0, got)
		}},
		{"blank needle", "  ", "egg", func(t *testing.T, got float64) {
			assert.Equal(t, 0.0, got)
		}},
		// Documented pg_trgm example.
		{"word in two words", "word", "two words", func(t *testing.T, got float64) {
			assert.InDelta(t, 0.8, got, 1e-9)
		}},
		{"prefix of a longer word", "egg", "eggs benedict", func(t *testing.T, got float64) {
			assert.InDelta(t, 0.75, got, 1e-9)
		}},
		{"plural", "tomato", "Tomatoes stewed slowly", func(t *testing.T, got float64) {
			assert.InDelta(t, 6.0/7.0, got, 1e-9)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, WordSimilarity(tt.needle, tt.haystack))
		})
	}
}

func TestWordSimilarity_IgnoresHaystackLength(t *testing.T) {
	short := WordSimilarity("egg", "egg roll")
	long := WordSimilarity("egg", "A long description of a dish that happens to mention egg once")
	assert.Equal(t, short, long)
}

func TestWordSimilarity_NonLatin(t *testing.T) {
	assert.Equal(t, 1.0, WordSimilarity("卵焼き", "卵焼き"))
	assert.Equal(t, 1.0, WordSimilarity("卵", "卵 料理"))

	// Unspaced text is a single word; the keyword's leading trigram is
	// one of its two.
	assert.InDelta(t, 0.5, WordSimilarity("卵", "卵焼きは砂糖と醤油で甘く味付けした江戸の料理です"), 1e-9)
	assert.InDelta(t, 1.0/3.0, WordSimilarity("豆腐", "麻婆豆腐"), 1e-9)
	assert.InDelta(t, 2.0/3.0, WordSimilarity("だし", "だし巻き卵"), 1e-9)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 1.0, CosineDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 1.0, CosineDistance(nil, nil))
}

func TestSQLArgAdapters(t *testing.T) {
	assert.Equal(t, 1.0, wordSimilarityArgs("egg", []byte("egg roll")))
	assert.Equal(t, 0.0, wordSimilarityArgs(nil, "egg"))

	a := oracle.SerializeVector([]float32{1, 0})
	b := oracle.SerializeVector([]float32{1, 0})
	assert.InDelta(t, 0.0, cosineDistanceArgs(a, b), 1e-9)
	assert.Equal(t, 1.0, cosineDistanceArgs(nil, b))
	assert.Equal(t, 1.0, cosineDistanceArgs([]byte{1, 2, 3}, b))
}
