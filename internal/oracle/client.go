package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const recipeColumns = "r.id, r.name, r.description, r.ingredients_text"

// Client builds similarity queries for a Dialect and runs them on a Querier.
// A Client is bound to one request and is not safe for concurrent use.
type Client struct {
	q         Querier
	d         Dialect
	lastQuery string
}

// NewClient returns a client issuing queries through q.
func NewClient(q Querier, d Dialect) *Client {
	return &Client{q: q, d: d}
}

// LastQuery returns the SQL text of the most recent query.
func (c *Client) LastQuery() string {
	return c.lastQuery
}

func (c *Client) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = c.d.Rebind(query)
	c.lastQuery = query
	return c.q.QueryContext(ctx, query, args...)
}

// keywordScore is the best similarity of kw across name and description.
func (c *Client) keywordScore(args *[]any, kw string) string {
	*args = append(*args, kw, kw)
	return c.d.Greatest("word_similarity(?, r.name)", "word_similarity(?, r.description)")
}

// predicate builds the OR-of-required and AND-of-fields exclusion clause.
func (c *Client) predicate(required, excluded []KeywordPredicate) (string, []any) {
	var clauses []string
	var args []any

	if len(required) > 0 {
		ors := make([]string, 0, len(required)*2)
		for _, p := range required {
			ors = append(ors, "word_similarity(?, r.name) > ?", "word_similarity(?, r.description) > ?")
			args = append(args, p.Keyword, p.Threshold, p.Keyword, p.Threshold)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	for _, p := range excluded {
		clauses = append(clauses, "NOT (word_similarity(?, r.name) > ? AND word_similarity(?, r.description) > ?)")
		args = append(args, p.Keyword, p.Threshold, p.Keyword, p.Threshold)
	}

	if len(clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(clauses, " AND "), args
}

// FilterByText implements Oracle.
func (c *Client) FilterByText(ctx context.Context, required, excluded []KeywordPredicate, limit int) ([]Candidate, error) {
	var selectArgs []any
	cols := []string{recipeColumns}
	for _, p := range required {
		cols = append(cols, c.keywordScore(&selectArgs, p.Keyword))
	}
	for _, p := range excluded {
		cols = append(cols, c.keywordScore(&selectArgs, p.Keyword))
	}

	where, whereArgs := c.predicate(required, excluded)
	query := fmt.Sprintf("SELECT %s FROM recipes r WHERE %s ORDER BY r.id LIMIT ?",
		strings.Join(cols, ", "), where)

	args := append(selectArgs, whereArgs...)
	args = append(args, limit)

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter by text: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Candidate
	scores := make([]float64, len(required)+len(excluded))
	for rows.Next() {
		var cand Candidate
		dest := []any{&cand.ID, &cand.Name, &cand.Description, &cand.IngredientsText}
		for i := range scores {
			dest = append(dest, &scores[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan text candidate: %w", err)
		}

		for i, p := range required {
			if scores[i] > p.Threshold {
				cand.MatchedKeywords = append(cand.MatchedKeywords, p.Keyword)
			}
			if scores[i] > cand.FulltextScore {
				cand.FulltextScore = scores[i]
			}
		}
		for i, p := range excluded {
			if scores[len(required)+i] > p.Threshold {
				cand.ExcludedFound = append(cand.ExcludedFound, p.Keyword)
			}
		}
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text candidates: %w", err)
	}
	return out, nil
}

// RankByVector implements Oracle.
func (c *Client) RankByVector(ctx context.Context, ids []int64, vec []float32) ([]Candidate, error) {
	if ids != nil && len(ids) == 0 {
		return nil, nil
	}

	args := []any{c.d.EncodeVector(vec)}
	query := fmt.Sprintf("SELECT %s, 1 - %s AS vector_score FROM recipes r JOIN recipe_embeddings e ON e.recipe_id = r.id",
		recipeColumns, c.d.CosineDistance("e.embedding", c.d.VectorParam()))
	if ids != nil {
		filter, idArgs := c.d.IDFilter("r.id", ids)
		query += " WHERE " + filter
		args = append(args, idArgs...)
	}
	query += " ORDER BY vector_score DESC, r.id"

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank by vector: %w", err)
	}
	return scanVectorRows(rows)
}

// Neighbors implements Oracle.
func (c *Client) Neighbors(ctx context.Context, id int64, limit int) ([]Candidate, error) {
	query := fmt.Sprintf(`SELECT %s, 1 - %s AS vector_score
		FROM recipes r
		JOIN recipe_embeddings e ON e.recipe_id = r.id
		JOIN recipe_embeddings src ON src.recipe_id = ?
		WHERE r.id <> ?
		ORDER BY vector_score DESC, r.id
		LIMIT ?`, recipeColumns, c.d.CosineDistance("e.embedding", "src.embedding"))

	rows, err := c.query(ctx, query, id, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	return scanVectorRows(rows)
}

func scanVectorRows(rows *sql.Rows) ([]Candidate, error) {
	defer func() { _ = rows.Close() }()

	var out []Candidate
	for rows.Next() {
		var cand Candidate
		var score sql.NullFloat64
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.Description, &cand.IngredientsText, &score); err != nil {
			return nil, fmt.Errorf("failed to scan vector candidate: %w", err)
		}
		cand.VectorScore = clamp(score.Float64)
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vector candidates: %w", err)
	}
	return out, nil
}

// CombinedQuery implements Oracle.
func (c *Client) CombinedQuery(ctx context.Context, req CombinedRequest) ([]Candidate, int, error) {
	var innerArgs []any

	ftExpr := "0.0"
	if len(req.Required) > 0 {
		exprs := make([]string, len(req.Required))
		for i, p := range req.Required {
			exprs[i] = c.keywordScore(&innerArgs, p.Keyword)
		}
		ftExpr = c.d.Greatest(exprs...)
	}

	vecExpr := "0.0"
	join := ""
	if req.QueryVector != nil {
		vecExpr = c.d.Greatest(
			fmt.Sprintf("COALESCE(1 - %s, 0.0)", c.d.CosineDistance("e.embedding", c.d.VectorParam())), "0.0")
		innerArgs = append(innerArgs, c.d.EncodeVector(req.QueryVector))
		join = " LEFT JOIN recipe_embeddings e ON e.recipe_id = r.id"
	}

	where, whereArgs := c.predicate(req.Required, req.Excluded)
	innerArgs = append(innerArgs, whereArgs...)

	query := fmt.Sprintf(`SELECT id, name, description, ingredients_text, fulltext_score, vector_score,
		fulltext_score * ? + vector_score * ? AS combined_score,
		COUNT(*) OVER () AS total
		FROM (SELECT %s, %s AS fulltext_score, %s AS vector_score FROM recipes r%s WHERE %s) scored
		ORDER BY combined_score DESC, id
		LIMIT ?`, recipeColumns, ftExpr, vecExpr, join, where)

	args := []any{req.FulltextWeight, req.VectorWeight}
	args = append(args, innerArgs...)
	args = append(args, req.Limit)

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to run combined query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Candidate
	total := 0
	for rows.Next() {
		var cand Candidate
		var ft, vec, combined sql.NullFloat64
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.Description, &cand.IngredientsText,
			&ft, &vec, &combined, &total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan combined candidate: %w", err)
		}
		cand.FulltextScore = clamp(ft.Float64)
		cand.VectorScore = clamp(vec.Float64)
		cand.CombinedScore = combined.Float64
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read combined candidates: %w", err)
	}
	return out, total, nil
}

// clamp keeps channel scores non-negative; opposed vectors score 0.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
