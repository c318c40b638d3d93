package storage

import (
	"math"
	"strings"
	"unicode"

	"github.com/dshills/recipesearch/internal/oracle"
)

// Go implementations of the similarity functions SQLite lacks. They mirror
// pg_trgm and pgvector so the same SQL runs on both backends.

// splitWords lowercases s and splits it on anything that is not a letter or digit.
func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// wordTrigrams returns the trigrams of every word of s in order, duplicates
// included. Words are padded the pg_trgm way with two leading blanks and one
// trailing blank.
func wordTrigrams(s string) []string {
	var out []string
	for _, w := range splitWords(s) {
		runes := []rune("  " + w + " ")
		for i := 0; i+3 <= len(runes); i++ {
			out = append(out, string(runes[i:i+3]))
		}
	}
	return out
}

// WordSimilarity is pg_trgm's word_similarity(needle, haystack): the best
// similarity between the needle's trigram set and any contiguous extent of
// the haystack's ordered trigrams.
func WordSimilarity(needle, haystack string) float64 {
	needleTrgs := wordTrigrams(needle)
	hayTrgs := wordTrigrams(haystack)
	if len(needleTrgs) == 0 || len(hayTrgs) == 0 {
		return 0
	}

	// Number every distinct trigram; found marks the needle's.
	index := make(map[string]int)
	var found []bool
	id := func(t string) int {
		if i, ok := index[t]; ok {
			return i
		}
		index[t] = len(found)
		found = append(found, false)
		return len(found) - 1
	}

	needleLen := 0
	for _, t := range needleTrgs {
		if i := id(t); !found[i] {
			found[i] = true
			needleLen++
		}
	}
	positions := make([]int, len(hayTrgs))
	for i, t := range hayTrgs {
		positions[i] = id(t)
	}
	return bestExtent(positions, found, needleLen)
}

func extentScore(shared, needleLen, extentLen int) float64 {
	return float64(shared) / float64(needleLen+extentLen-shared)
}

// bestExtent scans the haystack trigrams once. Each needle trigram moves
// the upper bound of the extent; the lower bound is then raised while that
// improves the score. extentLen counts distinct trigrams in the extent and
// shared those also in the needle.
func bestExtent(positions []int, found []bool, needleLen int) float64 {
	lastPos := make([]int, len(found))
	for i := range lastPos {
		lastPos[i] = -1
	}

	lower := -1
	shared, extentLen := 0, 0
	best := 0.0
	for upper, t := range positions {
		if lower >= 0 || found[t] {
			if lastPos[t] < 0 {
				extentLen++
				if found[t] {
					shared++
				}
			}
			lastPos[t] = upper
		}
		if !found[t] {
			continue
		}
		if lower < 0 {
			lower = upper
			extentLen = 1
		}

		cur := extentScore(shared, needleLen, extentLen)
		tmpShared, tmpLen := shared, extentLen
		prevLower := lower
		for l := lower; l <= upper; l++ {
			if s := extentScore(tmpShared, needleLen, tmpLen); s > cur {
				cur, shared, extentLen, lower = s, tmpShared, tmpLen, l
			}
			if lt := positions[l]; lastPos[lt] == l {
				tmpLen--
				if found[lt] {
					tmpShared--
				}
			}
		}
		if cur > best {
			best = cur
		}

		for l := prevLower; l < lower; l++ {
			if lastPos[positions[l]] == l {
				lastPos[positions[l]] = -1
			}
		}
	}
	return best
}

// CosineDistance is pgvector's <=> operator. Mismatched or zero vectors are
// maximally distant from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// SQL argument adapters shared by both SQLite drivers.

func textArg(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func wordSimilarityArgs(needle, haystack any) float64 {
	return WordSimilarity(textArg(needle), textArg(haystack))
}

func cosineDistanceArgs(a, b any) float64 {
	ab, ok1 := a.([]byte)
	bb, ok2 := b.([]byte)
	if !ok1 || !ok2 || len(ab) == 0 || len(bb) == 0 {
		return 1
	}
	va, err := oracle.DeserializeVector(ab)
	if err != nil {
		return 1
	}
	vb, err := oracle.DeserializeVector(bb)
	if err != nil {
		return 1
	}
	return CosineDistance(va, vb)
}
