package searcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

// DefaultSimilarLimit is the neighbor count used when the caller passes none.
const DefaultSimilarLimit = 10

// FindSimilar returns the recipes whose stored embeddings are closest to
// that of recipeID, best first, excluding recipeID itself. A recipe without
// an embedding has no neighbors.
func (s *Searcher) FindSimilar(ctx context.Context, recipeID int64, limit int) ([]types.SearchResult, error) {
	if recipeID <= 0 {
		return nil, &types.ConfigurationError{Field: "recipe_id", Reason: "must be positive"}
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > types.MaxResultsLimit {
		limit = types.MaxResultsLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.withSession(ctx, types.ModeVectorOnly, func(sess storage.Session) (*types.SearchResponse, error) {
		cands, err := sess.Neighbors(ctx, recipeID, limit)
		if err != nil {
			return nil, classify(ctx, types.ModeVectorOnly, StageNeighbors, types.KindOracle, err)
		}
		results := toResults(cands, StageNeighbors)
		for i := range results {
			results[i].CombinedScore = results[i].VectorScore
		}
		assignRanks(results)
		return &types.SearchResponse{Results: results}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("similar recipes found",
		zap.Int64("recipe_id", recipeID),
		zap.Int("results", len(resp.Results)),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Results, nil
}
