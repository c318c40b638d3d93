package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dshills/recipesearch/internal/oracle"
)

// PostgresOptions configures NewPostgresStorage.
type PostgresOptions struct {
	DSN          string
	Dimensions   int
	MaxOpenConns int
}

// NewPostgresStorage connects to a Postgres database with the pg_trgm and
// vector extensions available and applies pending migrations.
func NewPostgresStorage(ctx context.Context, opts PostgresOptions) (*SQLStorage, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	d := oracle.Postgres{}
	if err := ApplyMigrations(ctx, db, d, PostgresMigrations(opts.Dimensions)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLStorage{
		db:        db,
		dialect:   d,
		buildMode: "lib/pq",
		sizeQuery: "SELECT pg_database_size(current_database())",
	}, nil
}
