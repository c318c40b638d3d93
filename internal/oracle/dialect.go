package oracle

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect adapts query text and parameters to one database engine.
type Dialect interface {
	Name() string
	// Rebind rewrites ? placeholders into the engine's native form.
	Rebind(query string) string
	// Greatest returns the row-wise maximum of exprs.
	Greatest(exprs ...string) string
	// CosineDistance returns an expression for the distance between two vectors.
	CosineDistance(left, right string) string
	// VectorParam is the placeholder for a vector argument.
	VectorParam() string
	EncodeVector(v []float32) any
	DecodeVector(src any) ([]float32, error)
	// IDFilter restricts column to ids.
	IDFilter(column string, ids []int64) (string, []any)
}

// SQLite expects the word_similarity and cosine_distance functions to be
// registered on every connection. Vectors are little-endian float32 blobs.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) Greatest(exprs ...string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return "MAX(" + strings.Join(exprs, ", ") + ")"
}

func (SQLite) CosineDistance(left, right string) string {
	return fmt.Sprintf("cosine_distance(%s, %s)", left, right)
}

func (SQLite) VectorParam() string { return "?" }

func (SQLite) EncodeVector(v []float32) any { return SerializeVector(v) }

func (SQLite) DecodeVector(src any) ([]float32, error) {
	b, ok := src.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected vector type %T", src)
	}
	return DeserializeVector(b)
}

func (SQLite) IDFilter(column string, ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")), args
}

// Postgres relies on pg_trgm for word_similarity and pgvector for <=>.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (Postgres) Greatest(exprs ...string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return "GREATEST(" + strings.Join(exprs, ", ") + ")"
}

func (Postgres) CosineDistance(left, right string) string {
	return fmt.Sprintf("(%s <=> %s)", left, right)
}

func (Postgres) VectorParam() string { return "?::vector" }

func (Postgres) EncodeVector(v []float32) any { return FormatVectorLiteral(v) }

func (Postgres) DecodeVector(src any) ([]float32, error) {
	switch s := src.(type) {
	case []byte:
		return ParseVectorLiteral(string(s))
	case string:
		return ParseVectorLiteral(s)
	}
	return nil, fmt.Errorf("unexpected vector type %T", src)
}

func (Postgres) IDFilter(column string, ids []int64) (string, []any) {
	return column + " = ANY(?)", []any{pq.Array(ids)}
}

// SerializeVector packs v as little-endian float32 values.
func SerializeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DeserializeVector reverses SerializeVector.
func DeserializeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// FormatVectorLiteral renders v in pgvector text form, e.g. [0.1,0.2].
func FormatVectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVectorLiteral reads pgvector text form.
func ParseVectorLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	v := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", p, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
