// Package types defines the search model shared by the engine and its
// surfaces: conditions, results, stage telemetry and the error taxonomy.
//
// A SearchCondition is built once from raw parameters and never mutated:
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
//
// Weights are renormalized to sum to 1 (both zero becomes 0.5/0.5). Use
// WithMode and WithWeights to derive variants.
//
// Failed searches return a *SearchError whose kind matches one of
// ErrOracleUnavailable, ErrEmbeddingFailure or ErrTimeout via errors.Is,
// while errors.Unwrap yields the collaborator's own error.
package types
