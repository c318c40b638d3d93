package searcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/recipesearch/pkg/types"
)

// Recommendation reasons produced by DefaultRecommender and overrides.
const (
	ReasonPrecisionAtSpeed = "retains precision at higher speed"
	ReasonBalanced         = "balanced speed/precision"
	ReasonFastest          = "fastest available"
	ReasonCallerOverride   = "caller override"
)

// Recommender picks a mode from the responses of a comparison run.
type Recommender func(perMode map[types.SearchMode]*types.SearchResponse) (types.SearchMode, string)

// DefaultRecommender prefers parallel when it keeps at least 80% of
// cascade's results, then cascade when it is less than 1.5x slower than
// parallel, and otherwise the fastest mode.
func DefaultRecommender(perMode map[types.SearchMode]*types.SearchResponse) (types.SearchMode, string) {
	cascade, parallel := perMode[types.ModeCascade], perMode[types.ModeParallel]
	if cascade != nil && parallel != nil {
		if float64(len(parallel.Results)) >= 0.8*float64(len(cascade.Results)) {
			return types.ModeParallel, ReasonPrecisionAtSpeed
		}
		if float64(cascade.Elapsed) < 1.5*float64(parallel.Elapsed) {
			return types.ModeCascade, ReasonBalanced
		}
	}

	var best types.SearchMode
	var bestElapsed time.Duration
	for _, mode := range types.AllModes() {
		resp, ok := perMode[mode]
		if !ok || resp == nil {
			continue
		}
		if best == "" || resp.Elapsed < bestElapsed {
			best, bestElapsed = mode, resp.Elapsed
		}
	}
	return best, ReasonFastest
}

// CompareModes runs cond under every mode concurrently and recommends one.
// A non-empty prefer overrides the recommendation. Any failing mode fails
// the whole comparison.
func (s *Searcher) CompareModes(ctx context.Context, cond types.SearchCondition, prefer types.SearchMode) (*types.ModeComparison, error) {
	if prefer != "" && !prefer.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedMode, prefer)
	}

	modes := types.AllModes()
	perMode := make(map[types.SearchMode]*types.SearchResponse, len(modes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, mode := range modes {
		variant, err := cond.WithMode(mode)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			resp, err := s.Search(gctx, variant)
			if err != nil {
				return err
			}
			mu.Lock()
			perMode[mode] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &types.ModeComparison{PerMode: perMode}
	if prefer != "" {
		cmp.RecommendedMode, cmp.Reason = prefer, ReasonCallerOverride
	} else {
		cmp.RecommendedMode, cmp.Reason = s.recommend(perMode)
	}

	s.logger.Debug("mode comparison completed",
		zap.String("recommended", string(cmp.RecommendedMode)),
		zap.String("reason", cmp.Reason))
	return cmp, nil
}
