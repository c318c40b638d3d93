package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for search execution.
var (
	ErrConfiguration     = errors.New("invalid search configuration")
	ErrOracleUnavailable = errors.New("similarity store unavailable")
	ErrEmbeddingFailure  = errors.New("embedding generation failed")
	ErrUnsupportedMode   = errors.New("unsupported search mode")
	ErrTimeout           = errors.New("search deadline exceeded")
	ErrNotFound          = errors.New("recipe not found")
)

// Search result validation errors
var (
	ErrInvalidItemID = errors.New("invalid item ID")
	ErrInvalidRank   = errors.New("rank must be >= 1")
	ErrNegativeScore = errors.New("channel scores must be >= 0")
)

// ConfigurationError reports a malformed SearchCondition field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ErrorKind classifies a failed search call.
type ErrorKind int

const (
	KindOracle ErrorKind = iota + 1
	KindEmbedding
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindOracle:
		return "oracle_unavailable"
	case KindEmbedding:
		return "embedding_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SearchError carries the classification of a failed search together with
// the collaborator error that caused it. Unwrap returns the cause untouched.
type SearchError struct {
	Kind  ErrorKind
	Mode  SearchMode
	Stage string
	Err   error
}

func (e *SearchError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s search failed at %s (%s): %v", e.Mode, e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s search failed (%s): %v", e.Mode, e.Kind, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is matches the taxonomy sentinel for the error's kind.
func (e *SearchError) Is(target error) bool {
	switch target {
	case ErrOracleUnavailable:
		return e.Kind == KindOracle
	case ErrEmbeddingFailure:
		return e.Kind == KindEmbedding
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}
