package searcher

import (
	"context"
	"time"

	"github.com/dshills/recipesearch/internal/oracle"
	"github.com/dshills/recipesearch/pkg/types"
)

// cascade narrows candidates lexically, ranks the survivors by vector
// similarity and fuses both channels.
func (x *execution) cascade(ctx context.Context) (*types.SearchResponse, error) {
	cond := x.cond

	began := time.Now()
	filtered, err := x.sess.FilterByText(ctx,
		keywordPredicates(cond.RequiredKeywords(), cond.RequiredThreshold()),
		keywordPredicates(cond.ExcludedKeywords(), cond.ExcludedThreshold()),
		x.s.candidateLimit)
	if err != nil {
		return nil, x.fail(ctx, StageFulltextFilter, types.KindOracle, err)
	}
	x.record(StageFulltextFilter, -1, len(filtered), began)

	if len(filtered) == 0 {
		return x.respond(nil, 0), nil
	}

	lexical := toResults(filtered, StageFulltextFilter)
	var merged []types.SearchResult
	if cond.HasSemanticQuery() {
		began = time.Now()
		vec, err := x.embed(ctx, StageVectorRank)
		if err != nil {
			return nil, err
		}

		ranked, err := x.sess.RankByVector(ctx, candidateIDs(filtered), vec)
		if err != nil {
			return nil, x.fail(ctx, StageVectorRank, types.KindOracle, err)
		}
		x.record(StageVectorRank, len(filtered), len(ranked), began)
		x.auditQuery(vec, ranked, began)

		// Candidates without a stored embedding stay in with a zero
		// vector score.
		merged = Merge(lexical, toResults(ranked, StageVectorRank))
	} else {
		for i := range lexical {
			lexical[i].FulltextScore = 1.0
			lexical[i].VectorScore = 0
		}
		merged = lexical
	}

	began = time.Now()
	final := Fuse(merged, cond.FulltextWeight(), cond.VectorWeight(), cond.MaxResults())
	x.record(StageFusion, len(merged), len(final), began)

	return x.respond(final, len(filtered)), nil
}

// parallel scores both channels and ranks by their weighted sum in a single
// oracle query.
func (x *execution) parallel(ctx context.Context, cond types.SearchCondition) (*types.SearchResponse, error) {
	began := time.Now()

	var vec []float32
	if cond.HasSemanticQuery() {
		var err error
		if vec, err = x.embed(ctx, StageCombined); err != nil {
			return nil, err
		}
	}

	cands, total, err := x.sess.CombinedQuery(ctx, oracle.CombinedRequest{
		Required:       keywordPredicates(cond.RequiredKeywords(), cond.RequiredThreshold()),
		Excluded:       keywordPredicates(cond.ExcludedKeywords(), cond.ExcludedThreshold()),
		QueryVector:    vec,
		FulltextWeight: cond.FulltextWeight(),
		VectorWeight:   cond.VectorWeight(),
		Limit:          cond.MaxResults(),
	})
	if err != nil {
		return nil, x.fail(ctx, StageCombined, types.KindOracle, err)
	}
	x.record(StageCombined, -1, len(cands), began)
	if vec != nil {
		x.auditQuery(vec, cands, began)
	}

	results := toResults(cands, StageCombined)
	assignRanks(results)
	return x.respond(results, total), nil
}

// vectorOnly ranks the whole unfiltered universe by semantic similarity.
func (x *execution) vectorOnly(ctx context.Context) (*types.SearchResponse, error) {
	if !x.cond.HasSemanticQuery() {
		return x.respond(nil, 0), nil
	}

	began := time.Now()
	universe, err := x.sess.FilterByText(ctx, nil, nil, x.s.candidateLimit)
	if err != nil {
		return nil, x.fail(ctx, StageVectorRank, types.KindOracle, err)
	}

	vec, err := x.embed(ctx, StageVectorRank)
	if err != nil {
		return nil, err
	}

	ranked, err := x.sess.RankByVector(ctx, candidateIDs(universe), vec)
	if err != nil {
		return nil, x.fail(ctx, StageVectorRank, types.KindOracle, err)
	}
	x.record(StageVectorRank, len(universe), len(ranked), began)
	x.auditQuery(vec, ranked, began)

	results := toResults(ranked, StageVectorRank)
	if len(results) > x.cond.MaxResults() {
		results = results[:x.cond.MaxResults()]
	}
	for i := range results {
		results[i].CombinedScore = results[i].VectorScore
	}
	assignRanks(results)
	return x.respond(results, len(universe)), nil
}
