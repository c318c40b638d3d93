package types

import "time"

// SearchResult is one scored candidate.
type SearchResult struct {
	// Identification
	ItemID          int64  `json:"item_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	IngredientsText string `json:"ingredients_text,omitempty"`

	// Scoring. Channel scores are raw; CombinedScore is computed after
	// per-channel normalization across the batch.
	FulltextScore float64 `json:"fulltext_score"`
	VectorScore   float64 `json:"vector_score"`
	CombinedScore float64 `json:"combined_score"`

	// Provenance
	MatchedKeywords       []string `json:"matched_keywords,omitempty"`
	ExcludedKeywordsFound []string `json:"excluded_keywords_found,omitempty"`

	Rank        int    `json:"rank"` // 1-based
	OriginStage string `json:"origin_stage,omitempty"`
}

// Validate checks the result invariants.
func (r *SearchResult) Validate() error {
	if r.ItemID <= 0 {
		return ErrInvalidItemID
	}
	if r.Rank < 1 {
		return ErrInvalidRank
	}
	if r.FulltextScore < 0 || r.VectorScore < 0 {
		return ErrNegativeScore
	}
	return nil
}

// SearchStage is the telemetry for one executed stage.
type SearchStage struct {
	Name          string        `json:"name"`
	CandidatesIn  int           `json:"candidates_in"` // -1 when unknown
	CandidatesOut int           `json:"candidates_out"`
	Elapsed       time.Duration `json:"elapsed"`
	Query         string        `json:"query,omitempty"`
}

// SearchResponse is the complete outcome of one search call.
type SearchResponse struct {
	Results             []SearchResult  `json:"results"`
	TotalCandidateCount int             `json:"total_candidate_count"`
	Elapsed             time.Duration   `json:"elapsed"`
	Stages              []SearchStage   `json:"stages"`
	Condition           SearchCondition `json:"condition"`
}

// ModeComparison is the outcome of running every mode on one condition.
type ModeComparison struct {
	PerMode         map[SearchMode]*SearchResponse `json:"per_mode"`
	RecommendedMode SearchMode                     `json:"recommended_mode"`
	Reason          string                         `json:"reason"`
}

// QueryAnalysis is a keyword breakdown of free text.
type QueryAnalysis struct {
	OriginalQuery    string     `json:"original_query"`
	RequiredKeywords []string   `json:"suggested_required_keywords"`
	ExcludedKeywords []string   `json:"suggested_excluded_keywords"`
	SemanticQuery    string     `json:"suggested_semantic_query"`
	SuggestedMode    SearchMode `json:"suggested_mode"`
	Confidence       float64    `json:"confidence"`
	Complexity       string     `json:"complexity"`
}
