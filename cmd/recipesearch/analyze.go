package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/recipesearch/internal/searcher"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze TEXT...",
		Short: "Suggest keywords and a mode for a free-text request",
		Long: `Analyze breaks a natural language request such as "egg dish without meat"
into suggested required and excluded keywords, a semantic query and a mode.
It needs no database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := searcher.AnalyzeQuery(strings.Join(args, " "))

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), analysis)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Query:       %s\n", analysis.OriginalQuery)
			fmt.Fprintf(w, "Required:    %s\n", strings.Join(analysis.RequiredKeywords, ", "))
			fmt.Fprintf(w, "Excluded:    %s\n", strings.Join(analysis.ExcludedKeywords, ", "))
			fmt.Fprintf(w, "Semantic:    %s\n", analysis.SemanticQuery)
			fmt.Fprintf(w, "Mode:        %s\n", analysis.SuggestedMode)
			fmt.Fprintf(w, "Complexity:  %s\n", analysis.Complexity)
			fmt.Fprintf(w, "Confidence:  %.1f\n", analysis.Confidence)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest [PARTIAL]",
		Short: "List common recipe keywords containing PARTIAL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial := ""
			if len(args) == 1 {
				partial = args[0]
			}
			for _, kw := range searcher.SuggestKeywords(partial) {
				fmt.Fprintln(cmd.OutOrStdout(), kw)
			}
			return nil
		},
	}
}
