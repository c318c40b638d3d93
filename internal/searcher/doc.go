// Package searcher orchestrates hybrid recipe search: it executes a
// SearchCondition under one of four strategies against a similarity store,
// fuses lexical and semantic scores, and ranks the result.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb,
//	    searcher.WithLogger(logger),
//	    searcher.WithAudit(recorder),
//	)
//
//	cond, err := types.NewSearchCondition(types.ConditionParams{
//	    RequiredKeywords: []string{"egg"},
//	    ExcludedKeywords: []string{"meat"},
//	    SemanticQuery:    "colorful egg dish",
//	    FulltextWeight:   0.4,
//	    VectorWeight:     0.6,
//	    Mode:             types.ModeCascade,
//	    MaxResults:       15,
//	})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := s.Search(ctx, cond)
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (%.3f)\n", r.Rank, r.Name, r.CombinedScore)
//	}
//
// # Search Modes
//
// Cascade (default):
//
//   - fulltext-filter: keyword predicate selects candidates (OR over
//     required keywords, exclusion only when a keyword matches both name
//     and description)
//   - vector-rank: the semantic query is embedded and the candidates are
//     ranked by cosine similarity
//   - fusion: per-channel min-max normalization, weighted sum, stable sort,
//     rank assignment and truncation
//
// An empty filter result short-circuits after the first stage. Without a
// semantic query every candidate gets a placeholder fulltext score of 1.
//
// Parallel:
//
//   - one query scores both channels and ranks by the weighted sum
//   - fewer round trips, no per-stage telemetry
//
// Fulltext:
//
//   - parallel with full weight on the lexical channel and no semantic query
//
// Vector:
//
//   - ranks every stored recipe by semantic similarity
//   - an empty semantic query yields an empty response, not an error
//
// # Comparing Modes
//
// CompareModes runs all four modes concurrently and recommends one using
// DefaultRecommender, or the policy given with WithRecommender. Callers can
// force a mode with the prefer argument.
//
// # Errors
//
// Collaborator failures abort the call and come back as *types.SearchError.
// errors.Is matches types.ErrOracleUnavailable, types.ErrEmbeddingFailure or
// types.ErrTimeout; errors.Unwrap yields the collaborator's own error.
//
// # Resources
//
// Each call acquires one storage session at entry and releases it on every
// exit path. Calls are bounded by WithTimeout (30s by default).
package searcher
