//go:build purego || !cgo_sqlite

package storage

// Compiled without CGO or with the purego tag:
//
//	CGO_ENABLED=0 go build ./...
//
// The similarity functions are registered once, process-wide, as
// deterministic scalar functions.
//
// Driver used: modernc.org/sqlite

import (
	"database/sql/driver"
	"sync"

	"modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

var (
	registerOnce sync.Once
	registerErr  error
)

func registerFunctions() error {
	registerOnce.Do(func() {
		fns := map[string]func(a, b any) float64{
			"word_similarity": wordSimilarityArgs,
			"cosine_distance": cosineDistanceArgs,
		}
		for name, fn := range fns {
			fn := fn
			err := sqlite.RegisterDeterministicScalarFunction(name, 2,
				func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
					return fn(args[0], args[1]), nil
				})
			if err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}
