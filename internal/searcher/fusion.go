package searcher

import (
	"sort"

	"github.com/dshills/recipesearch/pkg/types"
)

// Fuse normalizes each channel across the batch, combines them with the
// given weights, sorts best first and truncates to limit. Raw channel
// scores are preserved on the returned results; the input is not modified.
//
// Ties keep their input order.
func Fuse(results []types.SearchResult, fulltextWeight, vectorWeight float64, limit int) []types.SearchResult {
	out := make([]types.SearchResult, len(results))
	copy(out, results)

	ft := make([]float64, len(out))
	vec := make([]float64, len(out))
	for i := range out {
		ft[i] = out[i].FulltextScore
		vec[i] = out[i].VectorScore
	}
	ft = Normalize(ft)
	vec = Normalize(vec)

	for i := range out {
		out[i].CombinedScore = ft[i]*fulltextWeight + vec[i]*vectorWeight
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	assignRanks(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Normalize min-max scales the nonzero values of one channel into [0, 1].
// Zeros mean the channel did not apply and stay zero. When the nonzero
// values do not span a range the scores are returned unchanged.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)

	lo, hi := 0.0, 0.0
	seen := false
	for _, s := range scores {
		if s == 0 {
			continue
		}
		if !seen {
			lo, hi, seen = s, s, true
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if !seen || hi <= lo {
		return out
	}

	for i, s := range out {
		if s != 0 {
			out[i] = (s - lo) / (hi - lo)
		}
	}
	return out
}

// Merge unions two per-channel result lists by item id. An item present in
// both keeps the fulltext side's provenance and scores plus the vector
// side's vector score; display fields come from whichever side has them.
// An item present in one list carries a zero score for the other channel.
// Order is first appearance, fulltext list first.
func Merge(fulltext, vector []types.SearchResult) []types.SearchResult {
	out := make([]types.SearchResult, 0, len(fulltext)+len(vector))
	index := make(map[int64]int, len(fulltext)+len(vector))

	for _, r := range fulltext {
		if i, ok := index[r.ItemID]; ok {
			if r.FulltextScore > out[i].FulltextScore {
				out[i].FulltextScore = r.FulltextScore
			}
			continue
		}
		r.VectorScore = 0
		index[r.ItemID] = len(out)
		out = append(out, r)
	}

	for _, r := range vector {
		i, ok := index[r.ItemID]
		if !ok {
			r.FulltextScore = 0
			index[r.ItemID] = len(out)
			out = append(out, r)
			continue
		}
		m := &out[i]
		m.VectorScore = r.VectorScore
		if m.Name == "" {
			m.Name = r.Name
		}
		if m.Description == "" {
			m.Description = r.Description
		}
		if m.IngredientsText == "" {
			m.IngredientsText = r.IngredientsText
		}
		m.OriginStage = r.OriginStage
	}
	return out
}

func assignRanks(results []types.SearchResult) {
	for i := range results {
		results[i].Rank = i + 1
	}
}
