package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/recipesearch/internal/oracle"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLStorage implements Storage over database/sql for one Dialect.
type SQLStorage struct {
	db        *sql.DB
	dialect   oracle.Dialect
	buildMode string
	sizeQuery string
}

// querier is an interface that *sql.DB, *sql.Conn and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Dialect returns the SQL dialect of the backend.
func (s *SQLStorage) Dialect() oracle.Dialect {
	return s.dialect
}

// DB exposes the underlying pool.
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// Recipe operations

func (s *SQLStorage) upsertRecipeWithQuerier(ctx context.Context, q querier, recipe *Recipe) error {
	if recipe.Name == "" {
		return fmt.Errorf("recipe name is required")
	}

	now := time.Now()
	args := []any{recipe.Name, recipe.Description, recipe.IngredientsText,
		recipe.InstructionsText, recipe.Tips, recipe.URL, now, now}

	var query string
	if recipe.ID > 0 {
		query = `
			INSERT INTO recipes (id, name, description, ingredients_text, instructions_text, tips, url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				ingredients_text = excluded.ingredients_text,
				instructions_text = excluded.instructions_text,
				tips = excluded.tips,
				url = excluded.url,
				updated_at = excluded.updated_at
			RETURNING id`
		args = append([]any{recipe.ID}, args...)
	} else {
		query = `
			INSERT INTO recipes (name, description, ingredients_text, instructions_text, tips, url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`
	}

	if err := q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&recipe.ID); err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now
	return nil
}

func (s *SQLStorage) UpsertRecipe(ctx context.Context, recipe *Recipe) error {
	return s.upsertRecipeWithQuerier(ctx, s.db, recipe)
}

func (s *SQLStorage) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	query := s.rebind(`
		SELECT id, name, description, ingredients_text, instructions_text, tips, url, created_at, updated_at
		FROM recipes
		WHERE id = ?`)

	var r Recipe
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Name, &r.Description, &r.IngredientsText,
		&r.InstructionsText, &r.Tips, &r.URL, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &r, nil
}

func (s *SQLStorage) ListRecipes(ctx context.Context, limit, offset int) ([]*Recipe, error) {
	if limit <= 0 {
		limit = 100
	}
	query := s.rebind(`
		SELECT id, name, description, ingredients_text, instructions_text, tips, url, created_at, updated_at
		FROM recipes
		ORDER BY id
		LIMIT ? OFFSET ?`)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recipes := make([]*Recipe, 0)
	for rows.Next() {
		var r Recipe
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.IngredientsText,
			&r.InstructionsText, &r.Tips, &r.URL, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, &r)
	}
	return recipes, rows.Err()
}

func (s *SQLStorage) DeleteRecipe(ctx context.Context, id int64) error {
	// Embeddings go first so SQLite without foreign_keys stays consistent.
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM recipe_embeddings WHERE recipe_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM recipes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStorage) CountRecipes(ctx context.Context) (int, error) {
	return s.count(ctx, "recipes")
}

func (s *SQLStorage) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Embedding operations

func (s *SQLStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	if len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	if embedding.Dimension == 0 {
		embedding.Dimension = len(embedding.Vector)
	}

	query := fmt.Sprintf(`
		INSERT INTO recipe_embeddings (recipe_id, combined_text, embedding, dimension, provider, model, created_at)
		VALUES (?, ?, %s, ?, ?, ?, ?)
		ON CONFLICT(recipe_id) DO UPDATE SET
			combined_text = excluded.combined_text,
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model`, s.dialect.VectorParam())

	now := time.Now()
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		embedding.RecipeID, embedding.CombinedText, s.dialect.EncodeVector(embedding.Vector),
		embedding.Dimension, embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	embedding.CreatedAt = now
	return nil
}

func (s *SQLStorage) GetEmbedding(ctx context.Context, recipeID int64) (*Embedding, error) {
	query := s.rebind(`
		SELECT recipe_id, combined_text, embedding, dimension, provider, model, created_at
		FROM recipe_embeddings
		WHERE recipe_id = ?`)

	var e Embedding
	var raw any
	err := s.db.QueryRowContext(ctx, query, recipeID).Scan(
		&e.RecipeID, &e.CombinedText, &raw, &e.Dimension, &e.Provider, &e.Model, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	if e.Vector, err = s.dialect.DecodeVector(raw); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	return &e, nil
}

// Audit log operations

func (s *SQLStorage) RecordVectorSearch(ctx context.Context, entry *VectorSearchLog) error {
	if entry.ID == "" {
		return fmt.Errorf("audit entry id is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var vec any
	if len(entry.QueryEmbedding) > 0 {
		vec = s.dialect.EncodeVector(entry.QueryEmbedding)
	}

	query := fmt.Sprintf(`
		INSERT INTO vector_search_logs (id, query_text, query_embedding, search_mode, result_count,
			max_similarity, min_similarity, avg_similarity, execution_time_ms, created_at)
		VALUES (?, ?, %s, ?, ?, ?, ?, ?, ?, ?)`, s.dialect.VectorParam())

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		entry.ID, entry.QueryText, vec, entry.Mode, entry.ResultCount,
		entry.MaxSimilarity, entry.MinSimilarity, entry.AvgSimilarity,
		float64(entry.ExecutionTime)/float64(time.Millisecond), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record vector search: %w", err)
	}
	return nil
}

func (s *SQLStorage) ListVectorSearches(ctx context.Context, limit int) ([]*VectorSearchLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := s.rebind(`
		SELECT id, query_text, search_mode, result_count, max_similarity, min_similarity,
			avg_similarity, execution_time_ms, created_at
		FROM vector_search_logs
		ORDER BY created_at DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector searches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*VectorSearchLog, 0)
	for rows.Next() {
		var e VectorSearchLog
		var ms float64
		if err := rows.Scan(&e.ID, &e.QueryText, &e.Mode, &e.ResultCount, &e.MaxSimilarity,
			&e.MinSimilarity, &e.AvgSimilarity, &ms, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ExecutionTime = time.Duration(ms * float64(time.Millisecond))
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Status operations

func (s *SQLStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{
		Backend:   s.dialect.Name(),
		BuildMode: s.buildMode,
	}

	var err error
	if status.RecipeCount, err = s.count(ctx, "recipes"); err != nil {
		return nil, err
	}
	if status.EmbeddingCount, err = s.count(ctx, "recipe_embeddings"); err != nil {
		return nil, err
	}
	if status.SearchLogCount, err = s.count(ctx, "vector_search_logs"); err != nil {
		return nil, err
	}

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.String()

	if s.sizeQuery != "" {
		// Size is informational; an unsupported pragma leaves it at zero.
		_ = s.db.QueryRowContext(ctx, s.sizeQuery).Scan(&status.DatabaseSize)
	}
	return status, nil
}

// Session operations

// Session implements Storage.
func (s *SQLStorage) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqlSession{Client: oracle.NewClient(conn, s.dialect), conn: conn}, nil
}

type sqlSession struct {
	*oracle.Client
	conn *sql.Conn
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}
