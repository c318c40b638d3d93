package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/recipesearch/pkg/types"
)

func addConditionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("require", nil, "required keywords (repeat or comma-separate; any one matches)")
	f.StringSlice("exclude", nil, "excluded keywords (reject when present in name and description)")
	f.String("query", "", "semantic query text")
	f.Float64("required-threshold", 0, "word similarity needed for a required keyword (default 0.1)")
	f.Float64("excluded-threshold", 0, "word similarity at which an excluded keyword counts (default 0.1)")
	f.Float64("fulltext-weight", 0, "weight of the keyword channel")
	f.Float64("vector-weight", 0, "weight of the semantic channel")
	f.Int("max-results", 0, "maximum number of results (1-100, default 20)")
	f.String("preset", "", "start from a demo condition: "+presetList())
	f.Bool("json", false, "output results as JSON")
}

func presetList() string {
	var out string
	for i, s := range types.DemoScenarios() {
		if i > 0 {
			out += ", "
		}
		out += s.Name
	}
	return out
}

// conditionFromFlags layers explicitly set flags over the preset, or over
// base when no preset is named.
func conditionFromFlags(cmd *cobra.Command, base types.ConditionParams) (types.SearchCondition, error) {
	f := cmd.Flags()
	params := base

	if name, _ := f.GetString("preset"); name != "" {
		scenario, ok := types.FindScenario(name)
		if !ok {
			return types.SearchCondition{}, fmt.Errorf("unknown preset %q (available: %s)", name, presetList())
		}
		params = scenario.Params
	}

	if f.Changed("require") {
		params.RequiredKeywords, _ = f.GetStringSlice("require")
	}
	if f.Changed("exclude") {
		params.ExcludedKeywords, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("query") {
		params.SemanticQuery, _ = f.GetString("query")
	}
	if f.Changed("required-threshold") {
		params.RequiredThreshold, _ = f.GetFloat64("required-threshold")
	}
	if f.Changed("excluded-threshold") {
		params.ExcludedThreshold, _ = f.GetFloat64("excluded-threshold")
	}
	if f.Changed("fulltext-weight") {
		params.FulltextWeight, _ = f.GetFloat64("fulltext-weight")
	}
	if f.Changed("vector-weight") {
		params.VectorWeight, _ = f.GetFloat64("vector-weight")
	}
	if f.Changed("max-results") {
		params.MaxResults, _ = f.GetInt("max-results")
	}
	if f.Lookup("mode") != nil && f.Changed("mode") {
		raw, _ := f.GetString("mode")
		mode, err := types.ParseMode(raw)
		if err != nil {
			return types.SearchCondition{}, err
		}
		params.Mode = mode
	}

	return types.NewSearchCondition(params)
}
