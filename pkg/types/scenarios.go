package types

// DemoScenario is a named, ready-to-run condition.
type DemoScenario struct {
	Name        string
	Description string
	Params      ConditionParams
}

// DemoScenarios returns the built-in presets.
func DemoScenarios() []DemoScenario {
	return []DemoScenario{
		{
			Name:        "colorful-egg",
			Description: "colorful egg dish without meat",
			Params: ConditionParams{
				RequiredKeywords: []string{"egg"},
				ExcludedKeywords: []string{"meat"},
				SemanticQuery:    "colorful egg dish",
				FulltextWeight:   0.4,
				VectorWeight:     0.6,
				Mode:             ModeCascade,
				MaxResults:       15,
			},
		},
		{
			Name:        "quick-vegetable",
			Description: "quick vegetable side dish",
			Params: ConditionParams{
				RequiredKeywords: []string{"vegetable"},
				SemanticQuery:    "quick and easy side dish",
				FulltextWeight:   0.5,
				VectorWeight:     0.5,
				Mode:             ModeParallel,
				MaxResults:       10,
			},
		},
		{
			Name:        "seafood-semantic",
			Description: "seafood by meaning only",
			Params: ConditionParams{
				SemanticQuery:  "fresh seafood grilled with salt",
				FulltextWeight: 0,
				VectorWeight:   1,
				Mode:           ModeVectorOnly,
				MaxResults:     10,
			},
		},
		{
			Name:        "sweet-keyword",
			Description: "sweet dessert by keyword only",
			Params: ConditionParams{
				RequiredKeywords: []string{"sweet", "dessert"},
				Mode:             ModeFulltextOnly,
				MaxResults:       10,
			},
		},
	}
}

// FindScenario looks up a preset by name.
func FindScenario(name string) (DemoScenario, bool) {
	for _, s := range DemoScenarios() {
		if s.Name == name {
			return s, true
		}
	}
	return DemoScenario{}, false
}
