package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/loader"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeLoadInProgress  = -32002 // Another load is already running
	ErrorCodeRecipeNotFound  = -32003 // Referenced recipe does not exist
	ErrorCodeSearchTimedOut  = -32004 // Search exceeded its deadline
	maxReportedErrorMessages = 5
)

// handleSearchRecipes handles the search_recipes tool invocation
func (s *Server) handleSearchRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	cond, err := s.parseCondition(args, true)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, cond)
	if err != nil {
		return nil, s.executionError("search failed", err)
	}

	return mcp.NewToolResultText(formatJSON(searchPayload(resp))), nil
}

// handleCompareModes handles the compare_search_modes tool invocation
func (s *Server) handleCompareModes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	cond, err := s.parseCondition(args, false)
	if err != nil {
		return nil, err
	}

	var prefer types.SearchMode
	if raw := getStringDefault(args, "prefer_mode", ""); raw != "" {
		if prefer, err = types.ParseMode(raw); err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid prefer_mode", map[string]interface{}{
				"param":   "prefer_mode",
				"value":   raw,
				"allowed": modeNames(),
			})
		}
	}

	cmp, err := s.searcher.CompareModes(ctx, cond, prefer)
	if err != nil {
		return nil, s.executionError("comparison failed", err)
	}

	perMode := make(map[string]interface{}, len(cmp.PerMode))
	for mode, resp := range cmp.PerMode {
		perMode[string(mode)] = map[string]interface{}{
			"result_count":          len(resp.Results),
			"total_candidate_count": resp.TotalCandidateCount,
			"elapsed_ms":            resp.Elapsed.Milliseconds(),
			"top_results":           summarize(resp.Results, 3),
		}
	}

	response := map[string]interface{}{
		"recommended_mode": string(cmp.RecommendedMode),
		"reason":           cmp.Reason,
		"per_mode":         perMode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAnalyzeQuery handles the analyze_query tool invocation
func (s *Server) handleAnalyzeQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	analysis := s.searcher.AnalyzeQuery(query)
	return mcp.NewToolResultText(formatJSON(analysis)), nil
}

// handleSuggestKeywords handles the suggest_keywords tool invocation
func (s *Server) handleSuggestKeywords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	partial := getStringDefault(args, "partial", "")

	response := map[string]interface{}{
		"partial":     partial,
		"suggestions": s.searcher.SuggestKeywords(partial),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindSimilar handles the find_similar_recipes tool invocation
func (s *Server) handleFindSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id := getIntDefault(args, "recipe_id", 0)
	if id <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "recipe_id must be a positive integer", map[string]interface{}{
			"param": "recipe_id",
			"value": args["recipe_id"],
		})
	}
	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > types.MaxResultsLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	recipe, err := s.storage.GetRecipe(ctx, int64(id))
	if err != nil {
		return nil, s.executionError("failed to get recipe", err)
	}

	results, err := s.searcher.FindSimilar(ctx, recipe.ID, limit)
	if err != nil {
		return nil, s.executionError("similarity search failed", err)
	}

	response := map[string]interface{}{
		"recipe": map[string]interface{}{
			"id":   recipe.ID,
			"name": recipe.Name,
		},
		"similar": summarize(results, len(results)),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleLoadRecipes handles the load_recipes tool invocation
func (s *Server) handleLoadRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(path) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": "path must be absolute",
		})
	}

	stats, err := s.loader.LoadFile(ctx, path)
	if errors.Is(err, loader.ErrLoadInProgress) {
		return nil, newMCPError(ErrorCodeLoadInProgress, err.Error(), nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "load failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"recipes_loaded":     stats.RecipesLoaded,
		"embeddings_created": stats.EmbeddingsCreated,
		"embeddings_skipped": stats.EmbeddingsSkipped,
		"failed":             stats.Failed,
		"duration_ms":        stats.Duration.Milliseconds(),
	}
	if n := len(stats.ErrorMessages); n > 0 {
		if n > maxReportedErrorMessages {
			response["errors"] = stats.ErrorMessages[:maxReportedErrorMessages]
			response["error_count"] = n
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"backend":        status.Backend,
		"build_mode":     status.BuildMode,
		"schema_version": status.SchemaVersion,
		"statistics": map[string]interface{}{
			"recipes_count":     status.RecipeCount,
			"embeddings_count":  status.EmbeddingCount,
			"search_logs_count": status.SearchLogCount,
			"database_bytes":    status.DatabaseSize,
		},
		"health": map[string]interface{}{
			"embeddings_available": status.EmbeddingCount > 0,
			"fully_embedded":       status.RecipeCount > 0 && status.EmbeddingCount >= status.RecipeCount,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// parseCondition builds a SearchCondition from tool arguments layered over
// the preset (if any) and the server defaults.
func (s *Server) parseCondition(args map[string]interface{}, withMode bool) (types.SearchCondition, error) {
	params := s.defaults

	if name := getStringDefault(args, "preset", ""); name != "" {
		scenario, ok := types.FindScenario(name)
		if !ok {
			return types.SearchCondition{}, newMCPError(ErrorCodeInvalidParams, "unknown preset", map[string]interface{}{
				"param":   "preset",
				"value":   name,
				"allowed": presetNames(),
			})
		}
		params = scenario.Params
	}

	if v, ok := getStringSlice(args, "required_keywords"); ok {
		params.RequiredKeywords = v
	}
	if v, ok := getStringSlice(args, "excluded_keywords"); ok {
		params.ExcludedKeywords = v
	}
	if v, ok := args["semantic_query"].(string); ok {
		params.SemanticQuery = v
	}
	if v, ok := args["required_threshold"].(float64); ok {
		params.RequiredThreshold = v
	}
	if v, ok := args["excluded_threshold"].(float64); ok {
		params.ExcludedThreshold = v
	}
	if v, ok := args["fulltext_weight"].(float64); ok {
		params.FulltextWeight = v
	}
	if v, ok := args["vector_weight"].(float64); ok {
		params.VectorWeight = v
	}
	if _, ok := args["max_results"]; ok {
		params.MaxResults = getIntDefault(args, "max_results", params.MaxResults)
	}
	if raw, ok := args["mode"].(string); ok && withMode {
		mode, err := types.ParseMode(raw)
		if err != nil {
			return types.SearchCondition{}, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
				"param":   "mode",
				"value":   raw,
				"allowed": modeNames(),
			})
		}
		params.Mode = mode
	}

	cond, err := types.NewSearchCondition(params)
	if err != nil {
		var cfgErr *types.ConfigurationError
		data := map[string]interface{}{"reason": err.Error()}
		if errors.As(err, &cfgErr) {
			data["param"] = cfgErr.Field
			data["reason"] = cfgErr.Reason
		}
		return types.SearchCondition{}, newMCPError(ErrorCodeInvalidParams, "invalid search condition", data)
	}
	return cond, nil
}

// executionError maps a searcher or storage failure onto an MCP error.
func (s *Server) executionError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	var searchErr *types.SearchError
	if errors.As(err, &searchErr) {
		data["kind"] = searchErr.Kind.String()
		data["mode"] = string(searchErr.Mode)
		if searchErr.Stage != "" {
			data["stage"] = searchErr.Stage
		}
	}

	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrConfiguration), errors.Is(err, types.ErrUnsupportedMode):
		code = ErrorCodeInvalidParams
	case errors.Is(err, types.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		code = ErrorCodeRecipeNotFound
	case errors.Is(err, types.ErrTimeout):
		code = ErrorCodeSearchTimedOut
	}

	s.logger.Warn(message, zap.Int("code", code), zap.Error(err))
	return newMCPError(code, message, data)
}

func searchPayload(resp *types.SearchResponse) map[string]interface{} {
	stages := make([]map[string]interface{}, len(resp.Stages))
	for i, st := range resp.Stages {
		stages[i] = map[string]interface{}{
			"name":           st.Name,
			"candidates_in":  st.CandidatesIn,
			"candidates_out": st.CandidatesOut,
			"elapsed_ms":     float64(st.Elapsed.Microseconds()) / 1000,
		}
	}
	return map[string]interface{}{
		"mode":                  string(resp.Condition.Mode()),
		"condition":             resp.Condition,
		"results":               resp.Results,
		"result_count":          len(resp.Results),
		"total_candidate_count": resp.TotalCandidateCount,
		"elapsed_ms":            float64(resp.Elapsed.Microseconds()) / 1000,
		"stages":                stages,
	}
}

// summarize trims results to the fields a comparison needs.
func summarize(results []types.SearchResult, n int) []map[string]interface{} {
	n = min(n, len(results))
	out := make([]map[string]interface{}, n)
	for i := range n {
		r := results[i]
		out[i] = map[string]interface{}{
			"rank":           r.Rank,
			"item_id":        r.ItemID,
			"name":           r.Name,
			"combined_score": r.CombinedScore,
		}
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string list given as a JSON array or a
// comma-separated string.
func getStringSlice(args map[string]interface{}, key string) ([]string, bool) {
	switch v := args[key].(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, true
		}
		return strings.Split(v, ","), true
	}
	return nil, false
}
