package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/recipesearch/pkg/types"
)

func modeNames() []string {
	modes := types.AllModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

func presetNames() []string {
	scenarios := types.DemoScenarios()
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}

// conditionProperties describes the search condition fields shared by
// search_recipes and compare_search_modes.
func conditionProperties() map[string]interface{} {
	return map[string]interface{}{
		"required_keywords": map[string]interface{}{
			"type":        "array",
			"description": "Keywords that must appear in the recipe name or description (any one matches)",
			"items":       map[string]interface{}{"type": "string"},
		},
		"excluded_keywords": map[string]interface{}{
			"type":        "array",
			"description": "Keywords that reject a recipe when found in both name and description",
			"items":       map[string]interface{}{"type": "string"},
		},
		"required_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum word similarity for a required keyword to match",
			"default":     types.DefaultKeywordThreshold,
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"excluded_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Word similarity above which an excluded keyword counts as present",
			"default":     types.DefaultKeywordThreshold,
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"semantic_query": map[string]interface{}{
			"type":        "string",
			"description": "Free text ranked by embedding similarity",
		},
		"fulltext_weight": map[string]interface{}{
			"type":        "number",
			"description": "Weight of the keyword channel in the combined score",
			"default":     types.DefaultWeight,
			"minimum":     0.0,
		},
		"vector_weight": map[string]interface{}{
			"type":        "number",
			"description": "Weight of the semantic channel in the combined score",
			"default":     types.DefaultWeight,
			"minimum":     0.0,
		},
		"max_results": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of results to return (1-100)",
			"default":     types.DefaultMaxResults,
			"minimum":     1,
			"maximum":     types.MaxResultsLimit,
		},
		"preset": map[string]interface{}{
			"type":        "string",
			"description": "Start from a built-in demo condition; explicit fields override it",
			"enum":        presetNames(),
		},
	}
}

// searchRecipesTool returns the tool definition for search_recipes
func searchRecipesTool() mcp.Tool {
	props := conditionProperties()
	props["mode"] = map[string]interface{}{
		"type":        "string",
		"description": "cascade (keyword filter then semantic rank), parallel (one combined query), fulltext, or vector",
		"enum":        modeNames(),
		"default":     string(types.ModeCascade),
	}
	return mcp.Tool{
		Name:        "search_recipes",
		Description: "Search recipes by required/excluded keywords and a semantic query using hybrid ranking",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

// compareModesTool returns the tool definition for compare_search_modes
func compareModesTool() mcp.Tool {
	props := conditionProperties()
	props["prefer_mode"] = map[string]interface{}{
		"type":        "string",
		"description": "Override the recommended mode",
		"enum":        modeNames(),
	}
	return mcp.Tool{
		Name:        "compare_search_modes",
		Description: "Run one condition in every search mode and recommend the best mode",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

// analyzeQueryTool returns the tool definition for analyze_query
func analyzeQueryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_query",
		Description: "Break a free-text request into suggested keywords, a semantic query and a mode",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language recipe request, e.g. 'egg dish without meat'",
				},
			},
			Required: []string{"query"},
		},
	}
}

// suggestKeywordsTool returns the tool definition for suggest_keywords
func suggestKeywordsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "suggest_keywords",
		Description: "Suggest common recipe keywords containing a partial string",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"partial": map[string]interface{}{
					"type":        "string",
					"description": "Partial keyword; empty returns the most common keywords",
				},
			},
		},
	}
}

// findSimilarTool returns the tool definition for find_similar_recipes
func findSimilarTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar_recipes",
		Description: "Find the recipes closest in meaning to a stored recipe",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"recipe_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the reference recipe",
					"minimum":     1,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of neighbors (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     types.MaxResultsLimit,
				},
			},
			Required: []string{"recipe_id"},
		},
	}
}

// loadRecipesTool returns the tool definition for load_recipes
func loadRecipesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_recipes",
		Description: "Import recipes from a JSON file and generate their embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a JSON array of recipes",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report recipe, embedding and audit log counts for the store",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
