package searcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/audit"
	"github.com/dshills/recipesearch/internal/embedder"
	"github.com/dshills/recipesearch/internal/oracle"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

// Stage names recorded in SearchResponse.Stages.
const (
	StageFulltextFilter = "fulltext-filter"
	StageVectorRank     = "vector-rank"
	StageFusion         = "fusion"
	StageCombined       = "combined"
	StageNeighbors      = "neighbors"
	stageSession        = "session"
)

const (
	// DefaultTimeout bounds one search call, session acquisition included.
	DefaultTimeout = 30 * time.Second

	// DefaultCandidateLimit caps unfiltered candidate sets.
	DefaultCandidateLimit = 1000

	maxTraceLen = 200
)

// SessionProvider hands out request-scoped oracle sessions.
// storage.Storage satisfies it.
type SessionProvider interface {
	Session(ctx context.Context) (storage.Session, error)
}

// AuditSink receives executed vector queries. Record must not block.
type AuditSink interface {
	Record(e audit.Entry)
}

// Searcher executes search conditions against a recipe store.
// It holds no per-request state and is safe for concurrent use.
type Searcher struct {
	sessions       SessionProvider
	embedder       embedder.Embedder
	logger         *zap.Logger
	timeout        time.Duration
	candidateLimit int
	audit          AuditSink
	recommend      Recommender
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCandidateLimit caps the candidate set fetched when no keyword
// predicate narrows it.
func WithCandidateLimit(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.candidateLimit = n
		}
	}
}

// WithAudit sends every executed vector query to sink.
func WithAudit(sink AuditSink) Option {
	return func(s *Searcher) {
		s.audit = sink
	}
}

// WithRecommender replaces the mode comparison policy.
func WithRecommender(r Recommender) Option {
	return func(s *Searcher) {
		if r != nil {
			s.recommend = r
		}
	}
}

// NewSearcher creates a Searcher. emb may be nil, in which case any search
// that needs a query vector fails with an embedding error.
func NewSearcher(sessions SessionProvider, emb embedder.Embedder, opts ...Option) *Searcher {
	s := &Searcher{
		sessions:       sessions,
		embedder:       emb,
		logger:         zap.NewNop(),
		timeout:        DefaultTimeout,
		candidateLimit: DefaultCandidateLimit,
		recommend:      DefaultRecommender,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs cond under its mode. The caller receives either a complete
// response or a classified error, never partial results.
func (s *Searcher) Search(ctx context.Context, cond types.SearchCondition) (*types.SearchResponse, error) {
	if !cond.Valid() {
		return nil, &types.ConfigurationError{Field: "condition", Reason: "not built with NewSearchCondition"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.withSession(ctx, cond.Mode(), func(sess storage.Session) (*types.SearchResponse, error) {
		x := &execution{s: s, sess: sess, cond: cond, start: start, stages: []types.SearchStage{}}
		return x.dispatch(ctx)
	})
	if err != nil {
		s.logger.Warn("search failed",
			zap.String("mode", string(cond.Mode())),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("search completed",
		zap.String("mode", string(cond.Mode())),
		zap.Int("results", len(resp.Results)),
		zap.Int("candidates", resp.TotalCandidateCount),
		zap.Int("stages", len(resp.Stages)),
		zap.Duration("elapsed", resp.Elapsed))
	return resp, nil
}

// withSession acquires a session, runs fn and releases the session on
// every exit path.
func (s *Searcher) withSession(ctx context.Context, mode types.SearchMode,
	fn func(storage.Session) (*types.SearchResponse, error)) (*types.SearchResponse, error) {

	if s.sessions == nil {
		return nil, classify(ctx, mode, stageSession, types.KindOracle, errors.New("no session provider configured"))
	}
	sess, err := s.sessions.Session(ctx)
	if err != nil {
		return nil, classify(ctx, mode, stageSession, types.KindOracle, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Debug("session close failed", zap.Error(cerr))
		}
	}()
	return fn(sess)
}

// classify wraps a collaborator error. Deadline expiry wins over the
// nominal kind because the collaborator only failed because time ran out.
func classify(ctx context.Context, mode types.SearchMode, stage string, kind types.ErrorKind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = types.KindTimeout
	}
	return &types.SearchError{Kind: kind, Mode: mode, Stage: stage, Err: err}
}

// execution is the state of one search call.
type execution struct {
	s      *Searcher
	sess   storage.Session
	cond   types.SearchCondition
	start  time.Time
	stages []types.SearchStage
}

func (x *execution) dispatch(ctx context.Context) (*types.SearchResponse, error) {
	switch x.cond.Mode() {
	case types.ModeCascade:
		return x.cascade(ctx)
	case types.ModeParallel:
		return x.parallel(ctx, x.cond)
	case types.ModeFulltextOnly:
		return x.parallel(ctx, x.cond.FulltextProjection())
	case types.ModeVectorOnly:
		return x.vectorOnly(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedMode, x.cond.Mode())
	}
}

func (x *execution) fail(ctx context.Context, stage string, kind types.ErrorKind, err error) error {
	return classify(ctx, x.cond.Mode(), stage, kind, err)
}

// embed turns the condition's semantic query into a vector.
func (x *execution) embed(ctx context.Context, stage string) ([]float32, error) {
	if x.s.embedder == nil {
		return nil, x.fail(ctx, stage, types.KindEmbedding, embedder.ErrNoProviderEnabled)
	}
	emb, err := x.s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: x.cond.SemanticQuery()})
	if err != nil {
		return nil, x.fail(ctx, stage, types.KindEmbedding, err)
	}
	if emb == nil || len(emb.Vector) == 0 {
		return nil, x.fail(ctx, stage, types.KindEmbedding, embedder.ErrProviderFailed)
	}
	return emb.Vector, nil
}

func (x *execution) record(name string, in, out int, began time.Time) {
	stage := types.SearchStage{
		Name:          name,
		CandidatesIn:  in,
		CandidatesOut: out,
		Elapsed:       time.Since(began),
	}
	if tr, ok := x.sess.(interface{ LastQuery() string }); ok {
		stage.Query = trace(tr.LastQuery())
	}
	x.stages = append(x.stages, stage)
}

func (x *execution) respond(results []types.SearchResult, total int) *types.SearchResponse {
	if results == nil {
		results = []types.SearchResult{}
	}
	return &types.SearchResponse{
		Results:             results,
		TotalCandidateCount: total,
		Elapsed:             time.Since(x.start),
		Stages:              x.stages,
		Condition:           x.cond,
	}
}

func (x *execution) auditQuery(vec []float32, scored []oracle.Candidate, began time.Time) {
	if x.s.audit == nil {
		return
	}
	scores := make([]float64, len(scored))
	for i, c := range scored {
		scores[i] = c.VectorScore
	}
	x.s.audit.Record(audit.Entry{
		QueryText:      x.cond.SemanticQuery(),
		QueryEmbedding: vec,
		Mode:           string(x.cond.Mode()),
		Scores:         scores,
		ExecutionTime:  time.Since(began),
	})
}

func trace(q string) string {
	if len(q) > maxTraceLen {
		return q[:maxTraceLen] + "..."
	}
	return q
}

func keywordPredicates(keywords []string, threshold float64) []oracle.KeywordPredicate {
	if len(keywords) == 0 {
		return nil
	}
	out := make([]oracle.KeywordPredicate, len(keywords))
	for i, kw := range keywords {
		out[i] = oracle.KeywordPredicate{Keyword: kw, Threshold: threshold}
	}
	return out
}

func candidateIDs(cands []oracle.Candidate) []int64 {
	ids := make([]int64, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	return ids
}

func toResults(cands []oracle.Candidate, stage string) []types.SearchResult {
	out := make([]types.SearchResult, len(cands))
	for i, c := range cands {
		out[i] = types.SearchResult{
			ItemID:                c.ID,
			Name:                  c.Name,
			Description:           c.Description,
			IngredientsText:       c.IngredientsText,
			FulltextScore:         c.FulltextScore,
			VectorScore:           c.VectorScore,
			CombinedScore:         c.CombinedScore,
			MatchedKeywords:       c.MatchedKeywords,
			ExcludedKeywordsFound: c.ExcludedFound,
			OriginStage:           stage,
		}
	}
	return out
}
