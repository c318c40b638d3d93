package storage

import (
	"context"
	"time"

	"github.com/dshills/recipesearch/internal/oracle"
)

// Storage defines the interface for persisting recipes and opening
// request-scoped similarity sessions.
type Storage interface {
	// Recipe operations
	UpsertRecipe(ctx context.Context, recipe *Recipe) error
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	ListRecipes(ctx context.Context, limit, offset int) ([]*Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	CountRecipes(ctx context.Context) (int, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, recipeID int64) (*Embedding, error)

	// Audit log operations
	RecordVectorSearch(ctx context.Context, entry *VectorSearchLog) error
	ListVectorSearches(ctx context.Context, limit int) ([]*VectorSearchLog, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Session acquires a dedicated connection for one request. Callers
	// must Close it on every exit path.
	Session(ctx context.Context) (Session, error)

	// Database operations
	Close() error
}

// Session is a similarity oracle bound to one pooled connection.
type Session interface {
	oracle.Oracle
	Close() error
}

// Recipe is one searchable item.
type Recipe struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	IngredientsText  string    `json:"ingredients_text"`
	InstructionsText string    `json:"instructions_text,omitempty"`
	Tips             string    `json:"tips,omitempty"`
	URL              string    `json:"url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Embedding is the stored vector for a recipe.
type Embedding struct {
	RecipeID     int64
	CombinedText string
	Vector       []float32
	Dimension    int
	Provider     string
	Model        string
	CreatedAt    time.Time
}

// VectorSearchLog is one audit row for an executed vector query.
type VectorSearchLog struct {
	ID             string
	QueryText      string
	QueryEmbedding []float32
	Mode           string
	ResultCount    int
	MaxSimilarity  float64
	MinSimilarity  float64
	AvgSimilarity  float64
	ExecutionTime  time.Duration
	CreatedAt      time.Time
}

// Status summarizes the store contents.
type Status struct {
	Backend        string
	BuildMode      string
	SchemaVersion  string
	RecipeCount    int
	EmbeddingCount int
	SearchLogCount int
	DatabaseSize   int64 // bytes
}
