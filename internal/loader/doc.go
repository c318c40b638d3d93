// Package loader imports recipes from JSON files into the store and
// generates their embeddings.
//
// A load runs in two phases. Every recipe is upserted first, in file
// order, so ids are assigned before any provider call. The combined text
// of each recipe (name, description, ingredients, steps and tips) is then
// embedded in batches on an ants worker pool and written back with
// UpsertEmbedding. Recipes whose stored embedding already covers the same
// text with the same model are skipped, which makes reloading a file
// cheap.
//
// Failures are per recipe or per batch: they are counted in
// Statistics.Failed and described in Statistics.ErrorMessages while the
// rest of the load continues. Only context cancellation aborts a load.
//
// Input format:
//
//	[
//	  {
//	    "name": "Rolled Egg Omelette",
//	    "description": "Sweet rolled egg",
//	    "ingredients": ["egg", "sugar", "soy sauce"],
//	    "instructions": ["Beat the eggs.", "Roll in layers."],
//	    "tips": "Keep the heat low."
//	  }
//	]
package loader
