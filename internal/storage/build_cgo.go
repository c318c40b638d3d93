//go:build cgo_sqlite && !purego

package storage

// Compiled with CGO and the cgo_sqlite tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./...
//
// The similarity functions are attached to every new connection through
// the driver's ConnectHook.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3_recipes"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("word_similarity", wordSimilarityArgs, true); err != nil {
				return err
			}
			return conn.RegisterFunc("cosine_distance", cosineDistanceArgs, true)
		},
	})
}

// registerFunctions is a no-op here; the ConnectHook does the work.
func registerFunctions() error {
	return nil
}
