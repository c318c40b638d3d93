package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/dshills/recipesearch/internal/oracle"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.1.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteMigrations is the SQLite schema history.
var SQLiteMigrations = []Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    ingredients_text TEXT NOT NULL DEFAULT '',
    instructions_text TEXT NOT NULL DEFAULT '',
    tips TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);

CREATE TABLE IF NOT EXISTS recipe_embeddings (
    recipe_id INTEGER PRIMARY KEY,
    combined_text TEXT NOT NULL DEFAULT '',
    embedding BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_recipe_embeddings_provider ON recipe_embeddings(provider, model);
`,
		Down: `
DROP TABLE IF EXISTS recipe_embeddings;
DROP TABLE IF EXISTS recipes;
`,
	},
	{
		Version: "1.1.0",
		Up: `
CREATE TABLE IF NOT EXISTS vector_search_logs (
    id TEXT PRIMARY KEY,
    query_text TEXT NOT NULL,
    query_embedding BLOB,
    search_mode TEXT NOT NULL,
    result_count INTEGER NOT NULL,
    max_similarity REAL NOT NULL DEFAULT 0,
    min_similarity REAL NOT NULL DEFAULT 0,
    avg_similarity REAL NOT NULL DEFAULT 0,
    execution_time_ms REAL NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vector_search_logs_created ON vector_search_logs(created_at);
`,
		Down: `DROP TABLE IF EXISTS vector_search_logs;`,
	},
}

// PostgresMigrations is the Postgres schema history for vectors of dims
// dimensions. It needs the pg_trgm and vector extensions.
func PostgresMigrations(dims int) []Migration {
	return []Migration{
		{
			Version: "1.0.0",
			Up: fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS pg_trgm;
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS recipes (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    ingredients_text TEXT NOT NULL DEFAULT '',
    instructions_text TEXT NOT NULL DEFAULT '',
    tips TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_recipes_name_trgm ON recipes USING gin (name gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_recipes_description_trgm ON recipes USING gin (description gin_trgm_ops);

CREATE TABLE IF NOT EXISTS recipe_embeddings (
    recipe_id BIGINT PRIMARY KEY REFERENCES recipes(id) ON DELETE CASCADE,
    combined_text TEXT NOT NULL DEFAULT '',
    embedding vector(%d) NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_recipe_embeddings_hnsw ON recipe_embeddings USING hnsw (embedding vector_cosine_ops);
`, dims),
			Down: `
DROP TABLE IF EXISTS recipe_embeddings;
DROP TABLE IF EXISTS recipes;
`,
		},
		{
			Version: "1.1.0",
			Up: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS vector_search_logs (
    id UUID PRIMARY KEY,
    query_text TEXT NOT NULL,
    query_embedding vector(%d),
    search_mode TEXT NOT NULL,
    result_count INTEGER NOT NULL,
    max_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
    min_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
    execution_time_ms DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vector_search_logs_created ON vector_search_logs(created_at);
`, dims),
			Down: `DROP TABLE IF EXISTS vector_search_logs;`,
		},
	}
}

// SchemaVersion returns the highest applied migration, or 0.0.0.
func SchemaVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	current := semver.MustParse("0.0.0")

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", s, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, rows.Err()
}

// ApplyMigrations runs all pending migrations in order, each in its own
// transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB, d oracle.Dialect, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}
		if !currentVersion.LessThan(migrationVersion) {
			continue
		}

		if err := runMigration(ctx, db, migration.Up, d.Rebind("INSERT INTO schema_version (version) VALUES (?)"), migration.Version); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB, d oracle.Dialect, migrations []Migration) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	var migration *Migration
	for i := range migrations {
		if v, err := semver.NewVersion(migrations[i].Version); err == nil && v.Equal(current) {
			migration = &migrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("no migration to roll back from %s", current)
	}

	if err := runMigration(ctx, db, migration.Down, d.Rebind("DELETE FROM schema_version WHERE version = ?"), migration.Version); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", migration.Version, err)
	}
	return nil
}

func runMigration(ctx context.Context, db *sql.DB, script, record, version string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}
	return tx.Commit()
}
