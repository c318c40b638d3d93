package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// SearchMode selects the execution strategy for one search call.
type SearchMode string

const (
	ModeCascade      SearchMode = "cascade"
	ModeParallel     SearchMode = "parallel"
	ModeFulltextOnly SearchMode = "fulltext"
	ModeVectorOnly   SearchMode = "vector"
)

// Condition defaults and bounds.
const (
	DefaultKeywordThreshold = 0.1
	DefaultMaxResults       = 20
	MaxResultsLimit         = 100
	DefaultWeight           = 0.5
)

// AllModes returns every supported mode in comparison order.
func AllModes() []SearchMode {
	return []SearchMode{ModeCascade, ModeParallel, ModeFulltextOnly, ModeVectorOnly}
}

// Valid reports whether m is one of the supported modes.
func (m SearchMode) Valid() bool {
	switch m {
	case ModeCascade, ModeParallel, ModeFulltextOnly, ModeVectorOnly:
		return true
	}
	return false
}

// ParseMode accepts the canonical mode names plus a few long-form aliases.
// An empty string selects cascade.
func ParseMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cascade":
		return ModeCascade, nil
	case "parallel", "combined", "hybrid":
		return ModeParallel, nil
	case "fulltext", "fulltext_only", "keyword":
		return ModeFulltextOnly, nil
	case "vector", "vector_only", "semantic":
		return ModeVectorOnly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// ConditionParams is the raw, unvalidated input for a SearchCondition.
// Zero thresholds and a zero MaxResults mean "use the default".
type ConditionParams struct {
	RequiredKeywords  []string   `json:"required_keywords,omitempty"`
	RequiredThreshold float64    `json:"required_threshold,omitempty"`
	ExcludedKeywords  []string   `json:"excluded_keywords,omitempty"`
	ExcludedThreshold float64    `json:"excluded_threshold,omitempty"`
	SemanticQuery     string     `json:"semantic_query,omitempty"`
	FulltextWeight    float64    `json:"fulltext_weight"`
	VectorWeight      float64    `json:"vector_weight"`
	Mode              SearchMode `json:"mode,omitempty"`
	MaxResults        int        `json:"max_results,omitempty"`
}

// SearchCondition describes one validated query. The zero value is not
// usable; build one with NewSearchCondition. Once built it never changes:
// the With* methods return modified copies.
type SearchCondition struct {
	required          []string
	requiredThreshold float64
	excluded          []string
	excludedThreshold float64
	semanticQuery     string
	fulltextWeight    float64
	vectorWeight      float64
	mode              SearchMode
	maxResults        int
	valid             bool
}

// NewSearchCondition validates p and returns the resulting condition.
func NewSearchCondition(p ConditionParams) (SearchCondition, error) {
	reqT, err := threshold("required_threshold", p.RequiredThreshold)
	if err != nil {
		return SearchCondition{}, err
	}
	excT, err := threshold("excluded_threshold", p.ExcludedThreshold)
	if err != nil {
		return SearchCondition{}, err
	}

	mode := p.Mode
	if mode == "" {
		mode = ModeCascade
	}
	if !mode.Valid() {
		return SearchCondition{}, ErrUnsupportedMode
	}

	maxResults := p.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxResultsLimit {
		return SearchCondition{}, &ConfigurationError{Field: "max_results", Reason: "must be between 1 and 100"}
	}

	ft, vec, err := normalizeWeights(p.FulltextWeight, p.VectorWeight)
	if err != nil {
		return SearchCondition{}, err
	}

	return SearchCondition{
		required:          cleanKeywords(p.RequiredKeywords),
		requiredThreshold: reqT,
		excluded:          cleanKeywords(p.ExcludedKeywords),
		excludedThreshold: excT,
		semanticQuery:     strings.TrimSpace(p.SemanticQuery),
		fulltextWeight:    ft,
		vectorWeight:      vec,
		mode:              mode,
		maxResults:        maxResults,
		valid:             true,
	}, nil
}

func threshold(field string, v float64) (float64, error) {
	if v == 0 {
		return DefaultKeywordThreshold, nil
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, &ConfigurationError{Field: field, Reason: "must be in (0, 1]"}
	}
	return v, nil
}

// normalizeWeights scales the pair so it sums to 1. Both zero yields 0.5/0.5.
func normalizeWeights(ft, vec float64) (float64, float64, error) {
	for _, w := range []float64{ft, vec} {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return 0, 0, &ConfigurationError{Field: "weights", Reason: "must be finite and >= 0"}
		}
	}
	total := ft + vec
	if total == 0 {
		return DefaultWeight, DefaultWeight, nil
	}
	ft = ft / total
	return ft, 1 - ft, nil
}

// cleanKeywords trims, drops blanks and removes case-insensitive duplicates,
// keeping first-seen order.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Valid reports whether the condition came out of NewSearchCondition.
func (c SearchCondition) Valid() bool { return c.valid }

func (c SearchCondition) RequiredKeywords() []string {
	return append([]string(nil), c.required...)
}

func (c SearchCondition) ExcludedKeywords() []string {
	return append([]string(nil), c.excluded...)
}

func (c SearchCondition) RequiredThreshold() float64 { return c.requiredThreshold }
func (c SearchCondition) ExcludedThreshold() float64 { return c.excludedThreshold }
func (c SearchCondition) SemanticQuery() string      { return c.semanticQuery }
func (c SearchCondition) FulltextWeight() float64    { return c.fulltextWeight }
func (c SearchCondition) VectorWeight() float64      { return c.vectorWeight }
func (c SearchCondition) Mode() SearchMode           { return c.mode }
func (c SearchCondition) MaxResults() int            { return c.maxResults }

// HasSemanticQuery reports whether vector scoring applies.
func (c SearchCondition) HasSemanticQuery() bool { return c.semanticQuery != "" }

// WithMode returns a copy of c running under mode m.
func (c SearchCondition) WithMode(m SearchMode) (SearchCondition, error) {
	if !m.Valid() {
		return SearchCondition{}, ErrUnsupportedMode
	}
	c.mode = m
	return c, nil
}

// WithWeights returns a copy of c with renormalized fusion weights.
func (c SearchCondition) WithWeights(fulltext, vector float64) (SearchCondition, error) {
	ft, vec, err := normalizeWeights(fulltext, vector)
	if err != nil {
		return SearchCondition{}, err
	}
	c.fulltextWeight, c.vectorWeight = ft, vec
	return c, nil
}

// FulltextProjection returns the keyword-only form of c: full weight on the
// lexical channel and no semantic query.
func (c SearchCondition) FulltextProjection() SearchCondition {
	c.fulltextWeight, c.vectorWeight = 1, 0
	c.semanticQuery = ""
	return c
}

// Params returns the normalized values as raw parameters.
func (c SearchCondition) Params() ConditionParams {
	return ConditionParams{
		RequiredKeywords:  c.RequiredKeywords(),
		RequiredThreshold: c.requiredThreshold,
		ExcludedKeywords:  c.ExcludedKeywords(),
		ExcludedThreshold: c.excludedThreshold,
		SemanticQuery:     c.semanticQuery,
		FulltextWeight:    c.fulltextWeight,
		VectorWeight:      c.vectorWeight,
		Mode:              c.mode,
		MaxResults:        c.maxResults,
	}
}

func (c SearchCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Params())
}
