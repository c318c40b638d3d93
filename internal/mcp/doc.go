// Package mcp implements the Model Context Protocol (MCP) server for recipesearch.
//
// The server exposes the search engine to AI assistants as tools:
//   - search_recipes: run a search condition in one mode
//   - compare_search_modes: run a condition in every mode and recommend one
//   - analyze_query: turn free text into suggested keywords and a mode
//   - suggest_keywords: complete a partial keyword from the common list
//   - find_similar_recipes: nearest recipes to a stored recipe
//   - get_status: store counts and schema version
//   - load_recipes: import a JSON recipe file (only when a loader is configured)
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries the protocol, so the server's logger must write to stderr.
//
// # Basic Usage
//
//	recipesearch mcp
//
// # Tool: search_recipes
//
//	Request:
//	{
//	  "name": "search_recipes",
//	  "arguments": {
//	    "required_keywords": ["egg"],
//	    "excluded_keywords": ["meat"],
//	    "semantic_query": "colorful egg dish",
//	    "fulltext_weight": 0.4,
//	    "vector_weight": 0.6,
//	    "mode": "cascade",
//	    "max_results": 15
//	  }
//	}
//
//	Response (text content, JSON):
//	{
//	  "mode": "cascade",
//	  "results": [
//	    {"item_id": 12, "name": "Egg Custard Cup", "fulltext_score": 0.5,
//	     "vector_score": 0.71, "combined_score": 0.83, "rank": 1, ...}
//	  ],
//	  "result_count": 1,
//	  "total_candidate_count": 3,
//	  "stages": [
//	    {"name": "fulltext-filter", "candidates_in": -1, "candidates_out": 3},
//	    {"name": "vector-rank", "candidates_in": 3, "candidates_out": 3},
//	    {"name": "fusion", "candidates_in": 3, "candidates_out": 1}
//	  ]
//	}
//
// A "preset" argument starts from one of the built-in demo conditions;
// any explicit field overrides the preset value.
//
// # Error Handling
//
// Handlers return *MCPError values:
//
//	-32602  invalid parameters (bad mode, threshold, max_results, unknown preset)
//	-32603  execution failure (store or embedding provider unavailable)
//	-32002  a load is already running
//	-32003  the referenced recipe does not exist
//	-32004  the search exceeded its deadline
//
// Execution errors carry the failure kind, mode and stage in Data.
package mcp
