// Package oracle builds and runs the similarity queries behind hybrid
// recipe search.
//
// The database does the scoring: word_similarity for the lexical channel
// and cosine distance for the vector channel. On Postgres these come from
// pg_trgm and pgvector; the SQLite backend registers Go implementations
// under the same names. A Dialect papers over placeholders, vector
// encoding and id lists so one query builder serves both.
package oracle
