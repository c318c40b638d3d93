// Package storage persists recipes and their embeddings and hands out
// request-scoped similarity sessions.
//
// Two backends share one implementation, SQLStorage:
//   - SQLite (default). Similarity functions are registered in Go on every
//     connection. Vectors are float32 BLOBs.
//   - Postgres via lib/pq, using pg_trgm and pgvector.
//
// # Database Schema
//
// Tables:
//   - recipes: searchable items (name, description, ingredients, ...)
//   - recipe_embeddings: one vector per recipe
//   - vector_search_logs: best-effort audit of vector queries
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("recipes.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	sess, err := store.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//	ids, err := sess.FilterByText(ctx, required, excluded, 1000)
//
// # Build Modes
//
// The default build uses modernc.org/sqlite (no CGO). Build with the
// cgo_sqlite tag to use github.com/mattn/go-sqlite3 instead.
package storage
