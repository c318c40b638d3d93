package oracle

import (
	"context"
	"database/sql"
)

// KeywordPredicate pairs a keyword with the similarity it must exceed.
type KeywordPredicate struct {
	Keyword   string
	Threshold float64
}

// Candidate is one item returned by the oracle together with whatever
// scores the issuing query computed.
type Candidate struct {
	ID              int64
	Name            string
	Description     string
	IngredientsText string

	FulltextScore float64
	VectorScore   float64
	CombinedScore float64

	MatchedKeywords []string
	ExcludedFound   []string
}

// CombinedRequest parameterizes a single-pass query that scores both
// channels and ranks by their weighted sum.
type CombinedRequest struct {
	Required       []KeywordPredicate
	Excluded       []KeywordPredicate
	QueryVector    []float32 // nil disables the vector channel
	FulltextWeight float64
	VectorWeight   float64
	Limit          int
}

// Oracle issues similarity queries against the recipe store.
type Oracle interface {
	// FilterByText returns items matching any required keyword on name or
	// description, minus items where an excluded keyword matches on both.
	// With no required keywords every item passes. Results are ordered by id.
	FilterByText(ctx context.Context, required, excluded []KeywordPredicate, limit int) ([]Candidate, error)

	// RankByVector ranks ids (nil means every embedded item) by cosine
	// similarity to vec, best first.
	RankByVector(ctx context.Context, ids []int64, vec []float32) ([]Candidate, error)

	// CombinedQuery scores and ranks in one statement. It also returns the
	// number of matching items before the limit was applied.
	CombinedQuery(ctx context.Context, req CombinedRequest) ([]Candidate, int, error)

	// Neighbors ranks items by similarity to the stored embedding of id.
	Neighbors(ctx context.Context, id int64, limit int) ([]Candidate, error)
}

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx the client needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
